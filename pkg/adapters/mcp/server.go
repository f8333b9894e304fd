// Package mcp exposes a path manager as a Model Context Protocol server,
// so that assistants can inspect the instrument and change the optical path.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/delmic/odemis-sub008"
	"github.com/delmic/odemis-sub008/internal/logging"
	"github.com/delmic/odemis-sub008/internal/presentation/graph"
	"github.com/delmic/odemis-sub008/pkg/domain"
	"github.com/delmic/odemis-sub008/pkg/future"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// PathManager is the part of optpath.Manager exposed to MCP clients.
type PathManager interface {
	ApplyMode(mode string, detector domain.Component) *future.Future
	ApplyForRequest(req domain.Request) *future.Future
	GuessMode(req domain.Request) (string, error)
	SetAcquisitionQuality(q domain.Quality)
	Table() domain.ModeTable
	State() *domain.PathState
	Components() []domain.Component
	Graph() *optpath.Graph
}

var _ PathManager = (*optpath.Manager)(nil)

// ModeList is the result of the list_modes tool.
type ModeList struct {
	Family  string     `json:"family" jsonschema_description:"Microscope family of the mode table"`
	Current string     `json:"current,omitempty" jsonschema_description:"Mode applied last"`
	Modes   []ModeInfo `json:"modes" jsonschema_description:"Available modes, in priority order"`
}

// ModeInfo describes one mode.
type ModeInfo struct {
	Name     string `json:"name"`
	Detector string `json:"detector" jsonschema_description:"Role pattern of the target detector"`
	Align    bool   `json:"align" jsonschema_description:"Alignment modes temporarily displace components"`
}

// StateResponse is the result of the tools changing the path.
type StateResponse struct {
	Mode  string            `json:"mode" jsonschema_description:"Mode that was applied"`
	State *domain.PathState `json:"state" jsonschema_description:"Path state after the change"`
}

// Server wraps a path manager and exposes it as an MCP Server.
type Server struct {
	manager   PathManager
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// NewServer creates a new MCP Server instance.
func NewServer(manager PathManager, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		manager:   manager,
		mcpServer: server.NewMCPServer("optpath-mcp", strings.TrimSpace(optpath.Version)),
		logger:    logger,
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE. It stops when ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_modes",
		mcp.WithDescription("List the acquisition modes of the instrument and the current one."),
		mcp.WithOutputSchema[ModeList](),
	), mcp.NewStructuredToolHandler(s.handleListModes))

	s.mcpServer.AddTool(mcp.NewTool("apply_mode",
		mcp.WithDescription("Move the components so that the signal reaches the detector of a mode. Waits for the moves to finish."),
		mcp.WithString("mode", mcp.Required(), mcp.Description("Mode name, as returned by list_modes")),
		mcp.WithString("detector", mcp.Description("Name of the target detector (optional, defaults to the detector of the mode)")),
		mcp.WithOutputSchema[StateResponse](),
	), mcp.NewStructuredToolHandler(s.handleApplyMode))

	s.mcpServer.AddTool(mcp.NewTool("apply_for_detector",
		mcp.WithDescription("Infer the mode from an acquisition on a detector and apply it."),
		mcp.WithString("detector", mcp.Required(), mcp.Description("Name of the detector")),
		mcp.WithString("kind", mcp.Description("Acquisition kind: generic, angle-resolved, angular-spectrum or overlay")),
		mcp.WithOutputSchema[StateResponse](),
	), mcp.NewStructuredToolHandler(s.handleApplyForDetector))

	s.mcpServer.AddTool(mcp.NewTool("set_quality",
		mcp.WithDescription("Set the acquisition quality (fast or best). Best stops the camera fan on SPARC2."),
		mcp.WithString("quality", mcp.Required(), mcp.Enum(string(domain.QualityFast), string(domain.QualityBest))),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		q := domain.Quality(request.GetString("quality", ""))
		if q != domain.QualityFast && q != domain.QualityBest {
			return mcp.NewToolResultError(fmt.Sprintf("invalid quality %q", q)), nil
		}
		s.manager.SetAcquisitionQuality(q)
		return mcp.NewToolResultText(fmt.Sprintf("quality set to %s", q)), nil
	})

	s.mcpServer.AddTool(mcp.NewTool("path_state",
		mcp.WithDescription("Get the persisted path state: last mode, quality and remembered positions."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		jsonBytes, _ := json.Marshal(s.manager.State())
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})

	s.mcpServer.AddTool(mcp.NewTool("get_graph",
		mcp.WithDescription("Get the affects graph of the instrument as a Mermaid flowchart."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText(s.mermaid()), nil
	})
}

func (s *Server) handleListModes(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (ModeList, error) {
	table := s.manager.Table()
	out := ModeList{
		Family:  string(table.Family),
		Current: s.manager.State().LastMode,
		Modes:   make([]ModeInfo, 0, len(table.Modes)),
	}
	for _, m := range table.Modes {
		out.Modes = append(out.Modes, ModeInfo{Name: m.Name, Detector: m.DetectorPattern, Align: m.Align})
	}
	return out, nil
}

func (s *Server) handleApplyMode(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (StateResponse, error) {
	mode, _ := args["mode"].(string)
	if mode == "" {
		return StateResponse{}, fmt.Errorf("mode is required")
	}

	var detector domain.Component
	if name, _ := args["detector"].(string); name != "" {
		if detector = s.component(name); detector == nil {
			return StateResponse{}, fmt.Errorf("%w: detector %q", domain.ErrComponentNotFound, name)
		}
	}

	if err := s.manager.ApplyMode(mode, detector).Wait(ctx); err != nil {
		s.logger.Warn("MCP apply_mode failed", "mode", mode, "err", err)
		return StateResponse{}, fmt.Errorf("apply %s failed: %w", mode, err)
	}
	return StateResponse{Mode: mode, State: s.manager.State()}, nil
}

func (s *Server) handleApplyForDetector(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (StateResponse, error) {
	name, _ := args["detector"].(string)
	detector := s.component(name)
	if detector == nil {
		return StateResponse{}, fmt.Errorf("%w: detector %q", domain.ErrComponentNotFound, name)
	}
	kind, _ := args["kind"].(string)
	req := domain.NewRequest(domain.RequestKind(kind), detector)

	mode, err := s.manager.GuessMode(req)
	if err != nil {
		return StateResponse{}, err
	}
	if err := s.manager.ApplyForRequest(req).Wait(ctx); err != nil {
		s.logger.Warn("MCP apply_for_detector failed", "mode", mode, "err", err)
		return StateResponse{}, fmt.Errorf("apply %s failed: %w", mode, err)
	}
	return StateResponse{Mode: mode, State: s.manager.State()}, nil
}

func (s *Server) component(name string) domain.Component {
	for _, c := range s.manager.Components() {
		if c.Name() == name {
			return c
		}
	}
	return nil
}

func (s *Server) mermaid() string {
	components := s.manager.Components()
	var overlay *graph.GraphOverlay
	if mode, ok := s.manager.Table().Lookup(s.manager.State().LastMode); ok {
		for _, c := range components {
			if domain.MatchRole(mode.DetectorPattern, c.Role()) {
				overlay = graph.PathOverlay(s.manager.Graph(), components, c.Name())
				break
			}
		}
	}
	return graph.GenerateMermaid(components, overlay)
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource("optpath://graph", "Affects graph of the instrument",
		mcp.WithMIMEType("text/plain"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "optpath://graph",
				MIMEType: "text/plain",
				Text:     s.mermaid(),
			},
		}, nil
	})

	s.mcpServer.AddResource(mcp.NewResource("optpath://state", "Current path state",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(s.manager.State())
		if err != nil {
			return nil, fmt.Errorf("failed to encode state: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "optpath://state",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
