// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the CSA catalog to LLM clients via stdio transport.
package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/csaharvest/internal/apperr"
	"github.com/starford/csaharvest/internal/index"
	"github.com/starford/csaharvest/internal/models"
	"github.com/starford/csaharvest/internal/storage"
)

const formatURI = "csa://catalog-format"

// Server wraps the MCP server with catalog tools.
type Server struct {
	mcp   *server.MCPServer
	store storage.Provider
	db    index.CatalogIndex
}

// New creates a new MCP server with all catalog tools registered.
func New(store storage.Provider, db index.CatalogIndex) *Server {
	s := &Server{store: store, db: db}

	s.mcp = server.NewMCPServer(
		"CSA Harvest",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_catalog",
		mcp.WithDescription("Full-text search through haul messages, recipe names and recipe instructions."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchCatalog)

	s.mcp.AddTool(mcp.NewTool("list_hauls",
		mcp.WithDescription("List weekly hauls in chronological order."),
		mcp.WithNumber("year", mcp.Description("Optional season year filter")),
	), s.listHauls)

	s.mcp.AddTool(mcp.NewTool("get_haul",
		mcp.WithDescription("Read one weekly haul with its items and message."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Haul title (e.g. csa_haul_2024_1)")),
	), s.getHaul)

	s.mcp.AddTool(mcp.NewTool("get_recipe",
		mcp.WithDescription("Read every published occurrence of a recipe."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Recipe id (e.g. 001)")),
	), s.getRecipe)

	s.mcp.AddTool(mcp.NewTool("recipes_for_item",
		mcp.WithDescription("List recipes that use a product or ingredient."),
		mcp.WithString("alias", mcp.Required(), mcp.Description("Item alias (e.g. olive_oil)")),
	), s.recipesForItem)

	s.mcp.AddTool(mcp.NewTool("list_catalog_files",
		mcp.WithDescription("List the JSON files in the catalog directory."),
	), s.listCatalogFiles)

	s.mcp.AddTool(mcp.NewTool("read_catalog_file",
		mcp.WithDescription("Read a raw catalog file. Read the format first via the "+
			formatURI+" resource."),
		mcp.WithString("name", mcp.Required(), mcp.Description("File name (e.g. products.json)")),
	), s.readCatalogFile)

	s.mcp.AddResource(
		mcp.NewResource(formatURI, "Catalog Format",
			mcp.WithResourceDescription("Layout of the hauls, recipes and registry files."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := models.Encode(v)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func lookupError(err error, what string) *mcp.CallToolResult {
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultError("not found: " + what)
	}
	return mcp.NewToolResultError(err.Error())
}

func (s *Server) searchCatalog(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.db.Search(query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(results)
}

func (s *Server) listHauls(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rows, _, err := s.db.ListHauls(req.GetInt("year", 0), 0, 0)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(rows) == 0 {
		return mcp.NewToolResultText("no hauls found"), nil
	}
	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		lines = append(lines, fmt.Sprintf("%s\t%s\t%s", r.Title, r.TimeStamp, r.Alias))
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) getHaul(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	haul, err := s.db.GetHaul(title)
	if err != nil {
		return lookupError(err, title), nil
	}
	return jsonResult(haul)
}

func (s *Server) getRecipe(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	recipes, err := s.db.GetRecipe(id)
	if err != nil {
		return lookupError(err, id), nil
	}
	return jsonResult(recipes)
}

func (s *Server) recipesForItem(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	alias, err := req.RequireString("alias")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rows, err := s.db.RecipesUsing(alias)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(rows) == 0 {
		return mcp.NewToolResultText("no recipes found"), nil
	}
	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		lines = append(lines, r.ID+"\t"+r.Alias)
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) listCatalogFiles(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	metas, err := s.store.List()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	names := make([]string, 0, len(metas))
	for _, m := range metas {
		names = append(names, m.Name)
	}
	return mcp.NewToolResultText(strings.Join(names, "\n")), nil
}

func (s *Server) readCatalogFile(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, err := s.store.Read(name)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", name)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) readFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      formatURI,
			MIMEType: "text/markdown",
			Text:     CatalogFormat,
		},
	}, nil
}
