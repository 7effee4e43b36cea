package main

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gamestracker/internal/kafka"
)

var delimiter = []byte("---")

// frontmatter is the YAML header of a note file
type frontmatter struct {
	GameID    int64    `yaml:"game_id"`
	HypeLevel string   `yaml:"hype_level"`
	Tags      []string `yaml:"tags"`
}

var errNoFrontmatter = errors.New("missing frontmatter")

// parseNote reads a markdown note: a YAML block between --- lines followed by
// the note body.
func parseNote(data []byte) (kafka.NoteMessage, error) {
	data = bytes.TrimLeft(data, "\ufeff \t\r\n")
	if !bytes.HasPrefix(data, delimiter) {
		return kafka.NoteMessage{}, errNoFrontmatter
	}

	rest := data[len(delimiter):]
	end := bytes.Index(rest, append([]byte("\n"), delimiter...))
	if end < 0 {
		return kafka.NoteMessage{}, errNoFrontmatter
	}

	var fm frontmatter
	if err := yaml.Unmarshal(rest[:end], &fm); err != nil {
		return kafka.NoteMessage{}, fmt.Errorf("parse frontmatter: %w", err)
	}
	if fm.GameID <= 0 {
		return kafka.NoteMessage{}, fmt.Errorf("game_id must be positive, got %d", fm.GameID)
	}

	body := rest[end+1+len(delimiter):]
	return kafka.NoteMessage{
		GameID:    fm.GameID,
		HypeLevel: fm.HypeLevel,
		Content:   strings.TrimSpace(string(body)),
		Tags:      fm.Tags,
	}, nil
}
