package lsp

import (
	"context"
	"encoding/json"
	"fmt"

	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"
	"go.uber.org/zap"

	"github.com/jenkinsdoc/jenkinsfile-ls/internal/config"
	"github.com/jenkinsdoc/jenkinsfile-ls/internal/docs"
	"github.com/jenkinsdoc/jenkinsfile-ls/internal/jenkinsctx"
	"github.com/jenkinsdoc/jenkinsfile-ls/internal/pipeline"
)

const (
	serverName = "jenkinsfile-ls"

	// CommandReloadDocs re-reads the documentation dataset. The previous
	// dataset stays active if the reload fails.
	CommandReloadDocs = "jenkinsfile.reloadDocs"
)

// Server answers LSP requests for Jenkins Pipeline files.
type Server struct {
	conn   jsonrpc2.Conn
	logger *zap.Logger

	cfg        config.Config
	root       string
	classifier *pipeline.Classifier

	store      *docs.Store
	documents  *DocumentManager
	completion *CompletionProvider
	hover      *HoverResolver
	definition *DefinitionResolver
}

// NewServer builds a server with the bundled documentation and default
// configuration; Initialize applies the workspace configuration.
func NewServer(logger *zap.Logger) (*Server, error) {
	store, err := docs.NewStore(logger)
	if err != nil {
		return nil, err
	}

	s := &Server{
		logger:    logger,
		store:     store,
		documents: NewDocumentManager(),
	}
	s.applyConfig(config.Default())
	return s, nil
}

// SetConnection wires the jsonrpc2 connection used for notifications.
func (s *Server) SetConnection(conn jsonrpc2.Conn) {
	s.conn = conn
}

func (s *Server) applyConfig(cfg config.Config) {
	s.cfg = cfg
	s.classifier = pipeline.NewClassifier(cfg.Files)
	s.completion = NewCompletionProvider(s.store, s.logger)
	s.hover = NewHoverResolver(s.store, s.logger)
	s.definition = NewDefinitionResolver(cfg.Definition, s.logger)
}

func (s *Server) Initialize(ctx context.Context, params *protocol.InitializeParams) (*protocol.InitializeResult, error) {
	if params.RootURI != "" {
		s.root = uri.URI(params.RootURI).Filename()
	}

	var initOptions json.RawMessage
	if params.InitializationOptions != nil {
		if raw, err := json.Marshal(params.InitializationOptions); err == nil {
			initOptions = raw
		}
	}

	cfg, err := config.Load(s.root, initOptions)
	if err != nil {
		// Bad configuration degrades to defaults rather than refusing to start.
		s.logger.Warn("configuration invalid, using defaults", zap.Error(err))
		cfg = config.Default()
	}
	s.applyConfig(cfg)

	if cfg.DataFile != "" {
		if err := s.store.ReloadFile(cfg.DataFile); err != nil {
			s.logger.Warn("configured data file not loaded", zap.Error(err))
		}
	}

	s.logger.Info("initializing", zap.String("root", s.root))

	return &protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: &protocol.TextDocumentSyncOptions{
				OpenClose: true,
				Change:    protocol.TextDocumentSyncKindFull,
			},
			HoverProvider: true,
			CompletionProvider: &protocol.CompletionOptions{
				TriggerCharacters: []string{".", "(", ","},
			},
			DefinitionProvider: true,
			ExecuteCommandProvider: &protocol.ExecuteCommandOptions{
				Commands: []string{CommandReloadDocs},
			},
		},
		ServerInfo: &protocol.ServerInfo{
			Name:    serverName,
			Version: "1.0.0",
		},
	}, nil
}

func (s *Server) Initialized(ctx context.Context, params *protocol.InitializedParams) error {
	s.logger.Info("server initialized")
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server shutting down")
	return nil
}

func (s *Server) Exit(ctx context.Context) error {
	s.logger.Info("server exiting")
	return nil
}

func (s *Server) DidOpen(ctx context.Context, params *protocol.DidOpenTextDocumentParams) error {
	s.documents.Open(params.TextDocument.URI, params.TextDocument.Version, params.TextDocument.Text)
	return nil
}

func (s *Server) DidChange(ctx context.Context, params *protocol.DidChangeTextDocumentParams) error {
	if len(params.ContentChanges) == 0 {
		return nil
	}
	// Full sync: the last change carries the whole document.
	last := params.ContentChanges[len(params.ContentChanges)-1]
	s.documents.Update(params.TextDocument.URI, params.TextDocument.Version, last.Text)
	return nil
}

func (s *Server) DidClose(ctx context.Context, params *protocol.DidCloseTextDocumentParams) error {
	s.documents.Close(params.TextDocument.URI)
	return nil
}

func (s *Server) Hover(ctx context.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	doc, ok := s.pipelineDocument(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}
	return s.hover.Hover(doc, params.Position), nil
}

func (s *Server) Completion(ctx context.Context, params *protocol.CompletionParams) (*protocol.CompletionList, error) {
	doc, ok := s.pipelineDocument(params.TextDocument.URI)
	if !ok {
		return &protocol.CompletionList{IsIncomplete: false, Items: []protocol.CompletionItem{}}, nil
	}

	items := s.completion.Completions(doc, params.Position)
	if items == nil {
		items = []protocol.CompletionItem{}
	}
	return &protocol.CompletionList{IsIncomplete: false, Items: items}, nil
}

// Definition resolves object.method() calls to function declarations in
// sibling .groovy files by lexical search.
func (s *Server) Definition(ctx context.Context, params *protocol.DefinitionParams) ([]protocol.Location, error) {
	doc, ok := s.pipelineDocument(params.TextDocument.URI)
	if !ok || int(params.Position.Line) >= len(doc.Lines) {
		return nil, nil
	}

	line := doc.Lines[params.Position.Line]
	member, receiver := memberAt(line, int(params.Position.Character))
	if member == "" {
		return nil, nil
	}
	// env members are documentation lookups, never definitions.
	if receiver == "env" {
		return nil, nil
	}

	match := s.definition.Resolve(ctx, member, s.definition.CandidateFiles(s.root))
	if match == nil {
		return nil, nil
	}

	pos := protocol.Position{Line: uint32(match.Line), Character: 0}
	return []protocol.Location{{
		URI:   uri.File(match.Path),
		Range: protocol.Range{Start: pos, End: pos},
	}}, nil
}

// memberAt extracts the identifier under the cursor and, when the identifier
// is the member of a dotted access, its receiver.
func memberAt(line string, col int) (member, receiver string) {
	member = jenkinsctx.WordAt(line, col)
	if member == "" {
		return "", ""
	}
	start := col
	for start > 0 && isWordByte(line[start-1]) {
		start--
	}
	if start > 0 && line[start-1] == '.' {
		receiver = jenkinsctx.WordAt(line, start-1)
	}
	return member, receiver
}

func isWordByte(c byte) bool {
	return c == '_' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9')
}

// ExecuteCommand handles workspace/executeCommand: currently only the
// documentation reload.
func (s *Server) ExecuteCommand(ctx context.Context, params *protocol.ExecuteCommandParams) (interface{}, error) {
	if params.Command != CommandReloadDocs {
		return nil, fmt.Errorf("unknown command %q", params.Command)
	}

	path := s.cfg.DataFile
	if len(params.Arguments) > 0 {
		if p, ok := params.Arguments[0].(string); ok && p != "" {
			path = p
		}
	}

	var err error
	if path == "" {
		err = s.store.ReloadDefault()
	} else {
		err = s.store.ReloadFile(path)
	}
	if err != nil {
		s.showMessage(ctx, protocol.MessageTypeWarning,
			"Documentation reload failed, previous data kept: "+err.Error())
		return nil, nil
	}

	ds := s.store.Current()
	s.showMessage(ctx, protocol.MessageTypeInfo, fmt.Sprintf(
		"Reloaded %d plugins with %d instructions", len(ds.Plugins()), len(ds.Instructions())))
	return nil, nil
}

func (s *Server) showMessage(ctx context.Context, typ protocol.MessageType, message string) {
	if s.conn == nil {
		return
	}
	err := s.conn.Notify(ctx, protocol.MethodWindowShowMessage, &protocol.ShowMessageParams{
		Type:    typ,
		Message: message,
	})
	if err != nil {
		s.logger.Debug("showMessage failed", zap.Error(err))
	}
}

// pipelineDocument returns the cached document when the URI passes the file
// classifier. Everything else gets no language features.
func (s *Server) pipelineDocument(docURI protocol.DocumentURI) (*Document, bool) {
	if !s.classifier.IsPipelineFile(uri.URI(docURI).Filename()) {
		return nil, false
	}
	return s.documents.Get(docURI)
}

// Handler dispatches jsonrpc2 requests to the server methods.
func (s *Server) Handler() jsonrpc2.Handler {
	return func(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
		s.logger.Debug("request", zap.String("method", req.Method()))
		switch req.Method() {
		case protocol.MethodInitialize:
			var params protocol.InitializeParams
			if err := json.Unmarshal(req.Params(), &params); err != nil {
				return reply(ctx, nil, err)
			}
			result, err := s.Initialize(ctx, &params)
			return reply(ctx, result, err)

		case protocol.MethodInitialized:
			var params protocol.InitializedParams
			if err := json.Unmarshal(req.Params(), &params); err != nil {
				return reply(ctx, nil, err)
			}
			return reply(ctx, nil, s.Initialized(ctx, &params))

		case protocol.MethodShutdown:
			return reply(ctx, nil, s.Shutdown(ctx))

		case protocol.MethodExit:
			_ = s.Exit(ctx)
			return nil

		case protocol.MethodTextDocumentDidOpen:
			var params protocol.DidOpenTextDocumentParams
			if err := json.Unmarshal(req.Params(), &params); err != nil {
				return reply(ctx, nil, err)
			}
			return reply(ctx, nil, s.DidOpen(ctx, &params))

		case protocol.MethodTextDocumentDidChange:
			var params protocol.DidChangeTextDocumentParams
			if err := json.Unmarshal(req.Params(), &params); err != nil {
				return reply(ctx, nil, err)
			}
			return reply(ctx, nil, s.DidChange(ctx, &params))

		case protocol.MethodTextDocumentDidClose:
			var params protocol.DidCloseTextDocumentParams
			if err := json.Unmarshal(req.Params(), &params); err != nil {
				return reply(ctx, nil, err)
			}
			return reply(ctx, nil, s.DidClose(ctx, &params))

		case protocol.MethodTextDocumentHover:
			var params protocol.HoverParams
			if err := json.Unmarshal(req.Params(), &params); err != nil {
				return reply(ctx, nil, err)
			}
			result, err := s.Hover(ctx, &params)
			return reply(ctx, result, err)

		case protocol.MethodTextDocumentCompletion:
			var params protocol.CompletionParams
			if err := json.Unmarshal(req.Params(), &params); err != nil {
				return reply(ctx, nil, err)
			}
			result, err := s.Completion(ctx, &params)
			return reply(ctx, result, err)

		case protocol.MethodTextDocumentDefinition:
			var params protocol.DefinitionParams
			if err := json.Unmarshal(req.Params(), &params); err != nil {
				return reply(ctx, nil, err)
			}
			result, err := s.Definition(ctx, &params)
			return reply(ctx, result, err)

		case protocol.MethodWorkspaceExecuteCommand:
			var params protocol.ExecuteCommandParams
			if err := json.Unmarshal(req.Params(), &params); err != nil {
				return reply(ctx, nil, err)
			}
			result, err := s.ExecuteCommand(ctx, &params)
			return reply(ctx, result, err)

		default:
			return jsonrpc2.MethodNotFoundHandler(ctx, reply, req)
		}
	}
}
