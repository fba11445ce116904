// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"testing"

	"github.com/spf13/pflag"
)

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"", "abc", 3},
		{"abc", "", 3},
		{"abc", "abc", 0},
		{"abc", "abd", 1},
		{"abc", "ab", 1},
		{"ab", "abc", 1},
		{"abc", "bac", 2},
		{"kitten", "sitting", 3},
		{"inspect", "inspcet", 2},
		{"compress", "compres", 1},
	}

	for _, test := range tests {
		t.Run(test.a+"->"+test.b, func(t *testing.T) {
			if got := levenshtein(test.a, test.b); got != test.want {
				t.Errorf("levenshtein(%q, %q) = %d, want %d", test.a, test.b, got, test.want)
			}
			if reverse := levenshtein(test.b, test.a); reverse != test.want {
				t.Errorf("levenshtein(%q, %q) = %d, not symmetric", test.b, test.a, reverse)
			}
		})
	}
}

func TestSuggestCommand(t *testing.T) {
	commands := []*Command{{Name: "test-session"}, {Name: "inspect"}, {Name: "version"}}

	tests := []struct {
		input     string
		threshold int
		want      string
	}{
		{"inspcet", suggestionThreshold, "inspect"},
		{"vresion", suggestionThreshold, "version"},
		{"test-sesion", suggestionThreshold, "test-session"},
		{"zzzzzzzz", suggestionThreshold, ""},
		{"inspcet", typoThreshold, "inspect"},
		{"serve", typoThreshold, ""},
		{"lsp", typoThreshold, ""},
	}
	for _, test := range tests {
		if got := suggestCommand(test.input, commands, test.threshold); got != test.want {
			t.Errorf("suggestCommand(%q, %d) = %q, want %q", test.input, test.threshold, got, test.want)
		}
	}
}

func TestSuggestFlag(t *testing.T) {
	flagSet := pflag.NewFlagSet("lsp-proxy", pflag.ContinueOnError)
	flagSet.StringP("server", "s", "", "")
	flagSet.String("compress", "none", "")
	flagSet.BoolP("json-lines", "j", false, "")

	tests := []struct {
		args []string
		want string
	}{
		{[]string{"--compres=zstd"}, "--compress"},
		{[]string{"-s", "gopls", "--json-line"}, "--json-lines"},
		{[]string{"--server", "gopls"}, ""},
		{[]string{"--", "--sevrer"}, ""},
		{[]string{"--completely-unrelated"}, ""},
	}
	for _, test := range tests {
		if got := suggestFlag(test.args, flagSet); got != test.want {
			t.Errorf("suggestFlag(%v) = %q, want %q", test.args, got, test.want)
		}
	}
}
