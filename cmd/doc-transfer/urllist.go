package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/Jombinoy/DOC/internal/transfer"
)

// loadRequests reads a URL list file into transfer requests.
//
// One signed URL per line. A second whitespace-separated column, when
// present, is an explicit destination path override. Blank lines and
// lines starting with # are skipped. List order is preserved;
// duplicates are kept and processed independently.
func loadRequests(path string) ([]transfer.Request, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var requests []transfer.Request

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		req := transfer.Request{SourceURL: fields[0]}
		if len(fields) > 1 {
			req.DestinationPath = fields[1]
		}
		if len(fields) > 2 {
			return nil, fmt.Errorf("line %d: expected at most 2 columns, got %d", lineNo, len(fields))
		}

		requests = append(requests, req)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read url list: %w", err)
	}

	return requests, nil
}
