package mineru

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
)

const maxMarkdownBytes = 32 << 20

// markdownFromZip returns the contents of the first markdown file in
// the archive, ordered by path so the selection is deterministic.
func markdownFromZip(archive []byte) ([]byte, error) {
	reader, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return nil, fmt.Errorf("open result archive: %w", err)
	}

	var candidates []*zip.File
	for _, file := range reader.File {
		if file.FileInfo().IsDir() {
			continue
		}
		if strings.EqualFold(path.Ext(file.Name), ".md") {
			candidates = append(candidates, file)
		}
	}
	if len(candidates) == 0 {
		return nil, errors.New("result archive contains no markdown file")
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Name < candidates[j].Name })

	rc, err := candidates[0].Open()
	if err != nil {
		return nil, fmt.Errorf("open %s in result archive: %w", candidates[0].Name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(io.LimitReader(rc, maxMarkdownBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s from result archive: %w", candidates[0].Name, err)
	}
	return data, nil
}
