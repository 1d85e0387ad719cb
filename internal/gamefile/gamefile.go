// Package gamefile reads and writes the on-disk game layout: one directory
// games/game_<id>/ per game holding one JSON file per participant.
package gamefile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"league-elo/internal/domain"
)

const dirPrefix = "game_"

var (
	gameDirPattern = regexp.MustCompile(`^game_[A-Za-z0-9_\-]+$`)
	unsafeChars    = regexp.MustCompile(`[^a-zA-Z0-9#_\-]`)
)

// Dir is the directory of gameID under root.
func Dir(root, gameID string) string {
	return filepath.Join(root, dirPrefix+gameID)
}

// List returns the ids of every game directory under root, sorted.
func List(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read games dir %s: %w", root, err)
	}

	var ids []string
	for _, e := range entries {
		if e.IsDir() && gameDirPattern.MatchString(e.Name()) {
			ids = append(ids, strings.TrimPrefix(e.Name(), dirPrefix))
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// Read loads the participants of one game in file name order. The game's start
// time is taken from the directory's modification time.
func Read(root, gameID string) (*domain.Game, error) {
	dir := Dir(root, gameID)
	info, err := os.Stat(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("game folder %s: %w", dir, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("stat game folder %s: %w", dir, err)
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("list participant files in %s: %w", dir, err)
	}
	sort.Strings(files)

	participants := make([]domain.Participant, 0, len(files))
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("read participant file %s: %w", f, err)
		}
		var p domain.Participant
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("decode participant file %s: %w", f, err)
		}
		participants = append(participants, p)
	}
	if len(participants) == 0 {
		return nil, fmt.Errorf("game folder %s: %w", dir, domain.ErrNoParticipants)
	}

	return &domain.Game{
		GameID:       gameID,
		Source:       domain.SourceImport,
		StartedAt:    info.ModTime().UTC(),
		Participants: participants,
	}, nil
}

// Write stores each participant as <name>.json under the game's directory.
func Write(root, gameID string, participants []domain.Participant) (string, error) {
	dir := Dir(root, gameID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create game folder %s: %w", dir, err)
	}

	for _, p := range participants {
		data, err := json.MarshalIndent(p, "", "  ")
		if err != nil {
			return "", fmt.Errorf("encode participant %s: %w", p.Name(), err)
		}
		path := filepath.Join(dir, SanitizeFilename(p.Name())+".json")
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return "", fmt.Errorf("write participant file %s: %w", path, err)
		}
	}
	return dir, nil
}

func SanitizeFilename(name string) string {
	return unsafeChars.ReplaceAllString(name, "_")
}
