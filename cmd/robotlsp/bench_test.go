package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"testing/fstest"

	"blake.io/robotide"
)

// suite returns a test file with the given number of test cases, each
// calling a keyword from common.resource.
func suite(size int) string {
	var sb strings.Builder
	sb.WriteString("*** Settings ***\nResource    common.resource\n\n*** Test Cases ***\n")
	for i := range size {
		fmt.Fprintf(&sb, "Case %d\n    Say Hello    world %d\n", i, i)
	}
	return sb.String()
}

func benchServer() *server {
	ws := &robotide.DirWorkspace{FS: fstest.MapFS{
		"common.resource": {Data: []byte(commonResource)},
	}}
	return newServer(strings.NewReader(""), io.Discard, "/ws", ws, robotide.DefaultConfig(), slog.New(slog.DiscardHandler))
}

func BenchmarkDocumentParse(b *testing.B) {
	for _, size := range []int{10, 100, 1000} {
		b.Run(fmt.Sprintf("cases=%d", size), func(b *testing.B) {
			text := suite(size)
			for b.Loop() {
				newDocument("file:///ws/suite.robot", "suite.robot", text)
				if _, err := robotide.Parse("suite.robot", text); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkDidChange(b *testing.B) {
	s := benchServer()
	ctx := context.Background()
	text := suite(100)
	i := 0
	for b.Loop() {
		s.cache.Update("suite.robot", text+fmt.Sprintf("# edit %d\n", i))
		if _, err := s.cache.Get(ctx, "suite.robot"); err != nil {
			b.Fatal(err)
		}
		i++
	}
}

func BenchmarkCompletion(b *testing.B) {
	s := benchServer()
	ctx := context.Background()
	text := suite(100)
	s.cache.Update("suite.robot", text)
	f, err := s.cache.Get(ctx, "suite.robot")
	if err != nil {
		b.Fatal(err)
	}
	cursor := strings.Index(text, "Say Hello") + len("Say")
	for b.Loop() {
		if len(robotide.Complete(ctx, s.resolver, f, cursor)) == 0 {
			b.Fatal("no proposals")
		}
	}
}
