/*
Command robotlsp is a Language Server Protocol (LSP) server for tabular
test files (.robot and .resource).

# Installation

To install the latest version of robotlsp, run:

	go install blake.io/robotide/cmd/robotlsp@latest

# Supported Features

robotlsp supports the following LSP features:

  - Diagnostics: unknown tables and settings, malformed variables,
    duplicate definitions and imports, ignored lines and extra arguments
  - Go to Definition: from keyword calls to keyword definitions, from
    variable references to the Variables table, and from Resource
    settings to the imported file, across imported resource files
  - Completion: keywords in keyword call cells and variables inside ${
    and @{ references, from the file and everything it imports

# Usage

	robotlsp [--root dir] [--index dir] [--config file] [-v]

The workspace root defaults to the current directory. Library and
variable file names are looked up in the index directory, which holds
the <name>.index files written by "robotide index". The configuration
file is described in the documentation of "robotide check".

robotlsp communicates over stdin/stdout and logs to stderr.

# Editor Setup

Using nvim-lspconfig (Neovim 0.5+), add to your init.lua:

	vim.api.nvim_create_autocmd({'BufRead', 'BufNewFile'}, {
		pattern = {'*.robot', '*.resource'},
		callback = function()
			vim.lsp.start({
				name = 'robotlsp',
				cmd = {'robotlsp', '--index', vim.fn.expand('~/.cache/robotide')},
			})
		end,
	})

Using eglot:

	(add-to-list 'eglot-server-programs '(robot-mode . ("robotlsp")))

Using Helix, add to languages.toml:

	[[language]]
	name = "robot"
	scope = "source.robot"
	file-types = ["robot", "resource"]
	language-servers = ["robotlsp"]

	[language-server.robotlsp]
	command = "robotlsp"
*/
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"blake.io/robotide"
	"github.com/spf13/cobra"
)

// JSON-RPC error codes
const (
	codeParseError     = -32700
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
)

func main() {
	if err := newCommand(os.Stdin, os.Stdout).Execute(); err != nil {
		var e exitError
		if errors.As(err, &e) {
			os.Exit(e.code)
		}
		fmt.Fprintf(os.Stderr, "robotlsp: %v\n", err)
		os.Exit(1)
	}
}

func newCommand(in io.Reader, out io.Writer) *cobra.Command {
	var (
		root, index, config string
		verbose             bool
	)
	cmd := &cobra.Command{
		Use:           "robotlsp",
		Short:         "Language server for tabular test files",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			log := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

			cfg := robotide.DefaultConfig()
			if config != "" {
				f, err := os.Open(config)
				if err != nil {
					return err
				}
				cfg, err = robotide.LoadConfig(f)
				f.Close()
				if err != nil {
					return err
				}
			}
			if root == "" {
				var err error
				if root, err = os.Getwd(); err != nil {
					return err
				}
			}
			ws := &robotide.DirWorkspace{FS: os.DirFS(root)}
			if index != "" {
				ws.Index = os.DirFS(index)
			}
			s := newServer(in, out, root, ws, cfg, log)
			return s.run()
		},
	}
	cmd.Flags().StringVar(&root, "root", "", "workspace root `dir` (default: current directory)")
	cmd.Flags().StringVar(&index, "index", "", "`dir` holding library and variable file index files")
	cmd.Flags().StringVar(&config, "config", "", "YAML configuration `file`")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log debug messages")
	return cmd
}

// Server

type server struct {
	r        *bufio.Reader
	w        *bufio.Writer
	root     string // absolute workspace root
	ws       robotide.Workspace
	cache    *robotide.Cache
	resolver *robotide.Resolver
	log      *slog.Logger
	docs     map[string]*document // open documents by URI
	markers  *markers
	shutdown bool
}

type exitError struct{ code int }

func (e exitError) Error() string { return fmt.Sprintf("exit %d", e.code) }

func newServer(in io.Reader, out io.Writer, root string, ws robotide.Workspace, cfg *robotide.Config, log *slog.Logger) *server {
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	cache := robotide.NewCache(ws, robotide.NewParser(cfg))
	cache.Logger = log
	return &server{
		r:     bufio.NewReader(in),
		w:     bufio.NewWriter(out),
		root:  root,
		ws:    ws,
		cache: cache,
		resolver: &robotide.Resolver{
			Source:    cache,
			Workspace: ws,
			Config:    cfg,
			Logger:    log,
		},
		log:     log,
		docs:    make(map[string]*document),
		markers: newMarkers(),
	}
}

func (s *server) run() error {
	for {
		data, err := s.readMessage()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		var msg request
		if err := json.Unmarshal(data, &msg); err != nil {
			s.sendError(nil, codeParseError, err.Error())
			continue
		}
		s.log.Debug("request", "method", msg.Method)
		if err := s.dispatch(context.Background(), &msg); err != nil {
			return err
		}
	}
}

func (s *server) dispatch(ctx context.Context, msg *request) error {
	switch msg.Method {
	case "initialize":
		return s.handleInitialize(msg)
	case "initialized":
		return nil
	case "shutdown":
		return s.handleShutdown(msg)
	case "exit":
		return s.handleExit()
	case "textDocument/didOpen":
		return s.handleDidOpen(ctx, msg)
	case "textDocument/didChange":
		return s.handleDidChange(ctx, msg)
	case "textDocument/didClose":
		return s.handleDidClose(msg)
	case "textDocument/definition":
		return s.handleDefinition(ctx, msg)
	case "textDocument/completion":
		return s.handleCompletion(ctx, msg)
	case "$/cancelRequest", "workspace/didChangeConfiguration":
		return nil
	default:
		if msg.ID != nil {
			return s.sendError(msg.ID, codeMethodNotFound, fmt.Sprintf("unsupported method %q", msg.Method))
		}
		return nil
	}
}

// Handlers

func (s *server) handleInitialize(msg *request) error {
	const result = `{
		"capabilities": {
			"textDocumentSync": {"openClose": true, "change": 1},
			"definitionProvider": true,
			"completionProvider": {"triggerCharacters": ["$", "@", "{"]}
		},
		"serverInfo": {"name": "robotlsp"}
	}`
	return s.replyRaw(msg.ID, json.RawMessage(result))
}

func (s *server) handleShutdown(msg *request) error {
	s.shutdown = true
	return s.reply(msg.ID, nil)
}

func (s *server) handleExit() error {
	if s.shutdown {
		return exitError{0}
	}
	return exitError{1}
}

func (s *server) handleDidOpen(ctx context.Context, msg *request) error {
	var p struct {
		TextDocument struct {
			URI  string `json:"uri"`
			Text string `json:"text"`
		} `json:"textDocument"`
	}
	if err := json.Unmarshal(msg.Params, &p); err != nil {
		return nil
	}
	doc := newDocument(p.TextDocument.URI, s.nameOf(p.TextDocument.URI), p.TextDocument.Text)
	s.docs[doc.uri] = doc
	s.cache.Update(doc.name, doc.text)
	return s.check(ctx, doc)
}

func (s *server) handleDidChange(ctx context.Context, msg *request) error {
	var p struct {
		TextDocument   textDocumentIdentifier `json:"textDocument"`
		ContentChanges []struct {
			Text string `json:"text"`
		} `json:"contentChanges"`
	}
	if err := json.Unmarshal(msg.Params, &p); err != nil {
		return nil
	}
	doc := s.docs[p.TextDocument.URI]
	if doc == nil || len(p.ContentChanges) == 0 {
		return nil
	}
	doc.setText(p.ContentChanges[len(p.ContentChanges)-1].Text)
	s.cache.Update(doc.name, doc.text)
	return s.check(ctx, doc)
}

func (s *server) handleDidClose(msg *request) error {
	var p struct {
		TextDocument textDocumentIdentifier `json:"textDocument"`
	}
	if err := json.Unmarshal(msg.Params, &p); err != nil {
		return nil
	}
	doc := s.docs[p.TextDocument.URI]
	if doc == nil {
		return nil
	}
	delete(s.docs, doc.uri)
	s.cache.Close(doc.name)
	s.markers.Clear(doc.name)
	return s.publishDiagnostics(doc)
}

// positionParams are the parameters of definition and completion
// requests.
type positionParams struct {
	TextDocument textDocumentIdentifier `json:"textDocument"`
	Position     position               `json:"position"`
}

func (s *server) handleDefinition(ctx context.Context, msg *request) error {
	if msg.ID == nil {
		return nil
	}
	var p positionParams
	if err := json.Unmarshal(msg.Params, &p); err != nil {
		return s.sendError(msg.ID, codeInvalidParams, err.Error())
	}
	doc := s.docs[p.TextDocument.URI]
	if doc == nil {
		return s.reply(msg.ID, nil)
	}
	f, err := s.cache.Get(ctx, doc.name)
	if err != nil {
		return s.reply(msg.ID, nil)
	}
	loc, ok := s.definition(ctx, f, doc.offset(p.Position))
	if !ok {
		return s.reply(msg.ID, nil)
	}
	return s.reply(msg.ID, loc)
}

// definition finds the target of the reference at offset in f.
func (s *server) definition(ctx context.Context, f *robotide.File, offset int) (location, bool) {
	l := f.LineAt(offset)
	if l == nil {
		return location{}, false
	}
	i := l.TokenAt(offset)
	if i < 0 {
		return location{}, false
	}
	tok := l.Tokens[i]

	var (
		kind robotide.LineType
		name string
	)
	switch start, n := robotide.VariableRegion(tok.Value, tok.Start, offset); {
	case n > 2:
		kind = robotide.LineVariableTable
		name = string([]rune(tok.Value)[start-tok.Start : start-tok.Start+n])
	case tok.Kind == robotide.ArgKeywordCall || tok.Kind == robotide.ArgKeywordCallDynamic:
		kind, name = robotide.LineKeywordBegin, robotide.Unescape(tok.Value)
	case tok.Kind == robotide.ArgSettingFile:
		target, ok := s.ws.ResolveRelative(f.Name, robotide.Unescape(tok.Value))
		if !ok {
			return location{}, false
		}
		return location{URI: s.uriOf(target), Range: span{}.toLSP()}, true
	default:
		return location{}, false
	}

	def, ok := robotide.FindDefinition(ctx, s.resolver, f.Name, kind, name)
	if !ok || def.File == nil {
		return location{}, false
	}
	doc := s.docs[s.uriOf(def.File.Name)]
	if doc == nil {
		text, _, err := s.ws.ReadFile(def.File.Name)
		if err != nil {
			return location{}, false
		}
		doc = newDocument(s.uriOf(def.File.Name), def.File.Name, text)
	}
	return location{URI: doc.uri, Range: doc.span(def.Name.Start, def.Name.End()).toLSP()}, true
}

func (s *server) handleCompletion(ctx context.Context, msg *request) error {
	if msg.ID == nil {
		return nil
	}
	var p positionParams
	if err := json.Unmarshal(msg.Params, &p); err != nil {
		return s.sendError(msg.ID, codeInvalidParams, err.Error())
	}
	doc := s.docs[p.TextDocument.URI]
	if doc == nil {
		return s.reply(msg.ID, []completionItem{})
	}
	f, err := s.cache.Get(ctx, doc.name)
	if err != nil {
		return s.reply(msg.ID, []completionItem{})
	}
	items := []completionItem{}
	for i, prop := range robotide.Complete(ctx, s.resolver, f, doc.offset(p.Position)) {
		kind := completionFunction
		if prop.Definition.Name.Kind == robotide.ArgVariableKey {
			kind = completionVariable
		}
		items = append(items, completionItem{
			Label:    prop.Text,
			Kind:     kind,
			Detail:   prop.Definition.Node.String(),
			SortText: fmt.Sprintf("%04d", i),
			TextEdit: &textEdit{
				Range:   doc.span(prop.Start, prop.Start+prop.Length).toLSP(),
				NewText: prop.Text,
			},
		})
	}
	return s.reply(msg.ID, items)
}

// check parses doc and publishes its diagnostics.
func (s *server) check(ctx context.Context, doc *document) error {
	f, err := s.cache.Get(ctx, doc.name)
	if err != nil {
		s.log.Warn("parse failed", "file", doc.name, "err", err)
		return nil
	}
	robotide.Publish(s.markers, f)
	return s.publishDiagnostics(doc)
}

func (s *server) publishDiagnostics(doc *document) error {
	diags := []diagnostic{}
	for _, d := range s.markers.byFile[doc.name] {
		diags = append(diags, diagnostic{
			Range:    doc.span(d.Start, d.End).toLSP(),
			Severity: lspSeverity(d.Severity),
			Source:   "robotlsp",
			Code:     d.Class.String(),
			Message:  d.Message,
		})
	}
	return s.notify("textDocument/publishDiagnostics", struct {
		URI         string       `json:"uri"`
		Diagnostics []diagnostic `json:"diagnostics"`
	}{
		URI:         doc.uri,
		Diagnostics: diags,
	})
}

func lspSeverity(sev robotide.Severity) int {
	switch sev {
	case robotide.SeverityError:
		return 1
	case robotide.SeverityWarning:
		return 2
	default:
		return 3
	}
}

// markers collects published diagnostics per file.
type markers struct {
	byFile map[string][]robotide.Diagnostic
}

func newMarkers() *markers {
	return &markers{byFile: make(map[string][]robotide.Diagnostic)}
}

func (m *markers) Emit(file string, d robotide.Diagnostic) {
	m.byFile[file] = append(m.byFile[file], d)
}

func (m *markers) Clear(file string) {
	delete(m.byFile, file)
}

// nameOf returns the workspace name of the file a URI refers to. Files
// outside the workspace keep their absolute path.
func (s *server) nameOf(uri string) string {
	p := uri
	if u, err := url.Parse(uri); err == nil && u.Scheme == "file" {
		p = filepath.FromSlash(u.Path)
	}
	rel, err := filepath.Rel(s.root, p)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(p)
	}
	return filepath.ToSlash(rel)
}

func (s *server) uriOf(name string) string {
	p := name
	if !filepath.IsAbs(filepath.FromSlash(name)) {
		p = filepath.Join(s.root, filepath.FromSlash(name))
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(p)}).String()
}

// Protocol I/O

func (s *server) readMessage() ([]byte, error) {
	var contentLen int
	for {
		line, err := s.r.ReadString('\n')
		if err != nil {
			return nil, err
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}
		if k, v, ok := strings.Cut(line, ":"); ok && strings.EqualFold(strings.TrimSpace(k), "content-length") {
			contentLen, _ = strconv.Atoi(strings.TrimSpace(v))
		}
	}
	if contentLen == 0 {
		return nil, fmt.Errorf("missing Content-Length")
	}
	data := make([]byte, contentLen)
	_, err := io.ReadFull(s.r, data)
	return data, err
}

func (s *server) writeMessage(data []byte) error {
	fmt.Fprintf(s.w, "Content-Length: %d\r\n\r\n", len(data))
	s.w.Write(data)
	return s.w.Flush()
}

func (s *server) reply(id json.RawMessage, result any) error {
	data, err := json.Marshal(struct {
		JSONRPC string          `json:"jsonrpc"`
		ID      json.RawMessage `json:"id"`
		Result  any             `json:"result"`
	}{JSONRPC: "2.0", ID: id, Result: result})
	if err != nil {
		return err
	}
	return s.writeMessage(data)
}

func (s *server) replyRaw(id json.RawMessage, result json.RawMessage) error {
	return s.reply(id, result)
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (s *server) sendError(id json.RawMessage, code int, message string) error {
	data, err := json.Marshal(struct {
		JSONRPC string          `json:"jsonrpc"`
		ID      json.RawMessage `json:"id"`
		Error   rpcError        `json:"error"`
	}{JSONRPC: "2.0", ID: id, Error: rpcError{Code: code, Message: message}})
	if err != nil {
		return err
	}
	return s.writeMessage(data)
}

func (s *server) notify(method string, params any) error {
	data, err := json.Marshal(struct {
		JSONRPC string `json:"jsonrpc"`
		Method  string `json:"method"`
		Params  any    `json:"params,omitempty"`
	}{JSONRPC: "2.0", Method: method, Params: params})
	if err != nil {
		return err
	}
	return s.writeMessage(data)
}

// LSP Protocol Types

type request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type textDocumentIdentifier struct {
	URI string `json:"uri"`
}

type position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

type lspRange struct {
	Start position `json:"start"`
	End   position `json:"end"`
}

type location struct {
	URI   string   `json:"uri"`
	Range lspRange `json:"range"`
}

type diagnostic struct {
	Range    lspRange `json:"range"`
	Severity int      `json:"severity"`
	Source   string   `json:"source,omitempty"`
	Code     string   `json:"code,omitempty"`
	Message  string   `json:"message"`
}

// Completion item kinds.
const (
	completionFunction = 3
	completionVariable = 6
)

type completionItem struct {
	Label    string    `json:"label"`
	Kind     int       `json:"kind"`
	Detail   string    `json:"detail,omitempty"`
	SortText string    `json:"sortText,omitempty"`
	TextEdit *textEdit `json:"textEdit,omitempty"`
}

type textEdit struct {
	Range   lspRange `json:"range"`
	NewText string   `json:"newText"`
}

// Document

// document is an open file. It converts between the LSP's UTF-16
// line/character positions and the code point offsets used by robotide.
type document struct {
	uri   string
	name  string // workspace name
	text  string
	lines [][]rune // lines without terminators
	start []int    // offset of each line
}

type span struct{ startLine, startChar, endLine, endChar int }

func (s span) toLSP() lspRange {
	return lspRange{
		Start: position{Line: s.startLine, Character: s.startChar},
		End:   position{Line: s.endLine, Character: s.endChar},
	}
}

func newDocument(uri, name, text string) *document {
	d := &document{uri: uri, name: name}
	d.setText(text)
	return d
}

func (d *document) setText(text string) {
	d.text = text
	d.lines, d.start = nil, nil
	offset := 0
	for _, line := range strings.SplitAfter(text, "\n") {
		rs := []rune(line)
		d.start = append(d.start, offset)
		offset += len(rs)
		rs = trimEOL(rs)
		d.lines = append(d.lines, rs)
	}
}

func trimEOL(rs []rune) []rune {
	if n := len(rs); n > 0 && rs[n-1] == '\n' {
		rs = rs[:n-1]
	}
	if n := len(rs); n > 0 && rs[n-1] == '\r' {
		rs = rs[:n-1]
	}
	return rs
}

// offset converts an LSP position to a code point offset.
func (d *document) offset(p position) int {
	if p.Line < 0 {
		return 0
	}
	if p.Line >= len(d.lines) {
		last := len(d.lines) - 1
		return d.start[last] + len(d.lines[last])
	}
	units := 0
	for i, r := range d.lines[p.Line] {
		if units >= p.Character {
			return d.start[p.Line] + i
		}
		units += utf16Width(r)
	}
	return d.start[p.Line] + len(d.lines[p.Line])
}

// position converts a code point offset to an LSP position.
func (d *document) position(offset int) position {
	line := 0
	for line+1 < len(d.start) && d.start[line+1] <= offset {
		line++
	}
	rs := d.lines[line]
	n := min(max(offset-d.start[line], 0), len(rs))
	return position{Line: line, Character: utf16Len(string(rs[:n]))}
}

func (d *document) span(start, end int) span {
	a, b := d.position(start), d.position(end)
	return span{a.Line, a.Character, b.Line, b.Character}
}

// Helpers

func utf16Width(r rune) int {
	if r > 0xFFFF {
		return 2
	}
	return 1
}

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		n += utf16Width(r)
	}
	return n
}
