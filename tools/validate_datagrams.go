//go:build ignore

// validate_datagrams decodes captured controller datagrams and reports
// commands the codec cannot parse.
//
// Input is either bare hex, one datagram per line, or a debug log written
// with --log-level debug --debug-packets, from which the "recv" datagrams
// are picked up.
//
//	go run tools/validate_datagrams.go capture.log
//	go run tools/validate_datagrams.go ./captures
package main

import (
	"bufio"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/muurk/stouch/internal/protocol"
)

var (
	logHex  = regexp.MustCompile(`"hex":\s*"([0-9a-f]+)(\.\.\.)?"`)
	bareHex = regexp.MustCompile(`^[0-9a-fA-F]+$`)
)

// Statistics tracks decoding results
type Statistics struct {
	TotalFiles     int
	TotalPackets   int
	Truncated      int // log dumps cut at 256 bytes
	PacketFailures int
	Commands       map[protocol.CommandID]int
	Failures       []Failure
}

// Failure is one datagram the codec rejected
type Failure struct {
	File   string
	Line   int
	Offset int
	Error  string
	Hex    string
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: validate_datagrams <file-or-directory>")
		os.Exit(1)
	}

	files, err := inputFiles(os.Args[1])
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	stats := Statistics{Commands: make(map[protocol.CommandID]int)}
	fmt.Printf("=== S-Touch Datagram Validator ===\n")
	fmt.Printf("Files to process: %d\n\n", len(files))
	for _, f := range files {
		processFile(f, &stats)
	}
	printStatistics(&stats)

	if stats.PacketFailures > 0 {
		os.Exit(2)
	}
}

func inputFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	var files []string
	for _, pattern := range []string{"*.log", "*.hex", "*.txt"} {
		m, err := filepath.Glob(filepath.Join(path, pattern))
		if err != nil {
			return nil, err
		}
		files = append(files, m...)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .log, .hex or .txt files in %s", path)
	}
	sort.Strings(files)
	return files, nil
}

// extract returns the datagram hex of one input line
func extract(line string) (string, bool, bool) {
	line = strings.TrimSpace(line)
	if m := logHex.FindStringSubmatch(line); m != nil {
		if !strings.Contains(line, `"direction": "recv"`) {
			return "", false, false
		}
		return m[1], m[2] != "", true
	}
	if bareHex.MatchString(line) {
		return line, false, true
	}
	return "", false, false
}

func processFile(filename string, stats *Statistics) {
	stats.TotalFiles++

	f, err := os.Open(filename)
	if err != nil {
		fmt.Printf("Error reading file %s: %v\n", filename, err)
		return
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		hexStr, cut, ok := extract(scanner.Text())
		if !ok {
			continue
		}
		if cut {
			stats.Truncated++
			continue
		}
		data, err := hex.DecodeString(hexStr)
		if err != nil {
			continue
		}
		// handshake datagrams carry no envelope
		if len(data) > 0 && data[0] != protocol.PacketTypeCommand && data[0] != protocol.PacketTypeExtended {
			continue
		}

		stats.TotalPackets++
		if offset, err := decodePacket(data, stats); err != nil {
			stats.PacketFailures++
			stats.Failures = append(stats.Failures, Failure{
				File:   filename,
				Line:   lineNum,
				Offset: offset,
				Error:  err.Error(),
				Hex:    hexStr,
			})
		}
	}
	if err := scanner.Err(); err != nil {
		fmt.Printf("Error scanning %s: %v\n", filename, err)
	}
}

// decodePacket walks every embedded command and returns the offset of the
// first one that fails
func decodePacket(data []byte, stats *Statistics) (int, error) {
	_, body, err := protocol.ParseHeader(data)
	if err != nil {
		return 0, err
	}
	offset := protocol.HeaderSize
	for len(body) > 0 {
		cmd, n, err := protocol.Next(body)
		if err != nil {
			if errors.Is(err, protocol.ErrUnknownCommand) {
				return offset, fmt.Errorf("unknown command %d", body[0])
			}
			return offset, err
		}
		stats.Commands[cmd.ID()]++
		body = body[n:]
		offset += n
	}
	return offset, nil
}

func printStatistics(stats *Statistics) {
	fmt.Printf("\n========================================\n")
	fmt.Printf("VALIDATION RESULTS\n")
	fmt.Printf("========================================\n\n")

	fmt.Printf("Files Processed:    %d\n", stats.TotalFiles)
	fmt.Printf("Packets Decoded:    %d\n", stats.TotalPackets)
	fmt.Printf("Packets Failed:     %d\n", stats.PacketFailures)
	fmt.Printf("Truncated Dumps:    %d (skipped)\n", stats.Truncated)

	ids := make([]protocol.CommandID, 0, len(stats.Commands))
	for id := range stats.Commands {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return stats.Commands[ids[i]] > stats.Commands[ids[j]] })

	fmt.Printf("\n----------------------------------------\n")
	fmt.Printf("COMMAND DISTRIBUTION\n")
	fmt.Printf("----------------------------------------\n")
	for _, id := range ids {
		fmt.Printf("%3d %-18s %d\n", byte(id), id, stats.Commands[id])
	}

	if len(stats.Failures) > 0 {
		fmt.Printf("\n----------------------------------------\n")
		fmt.Printf("FAILURES (%d total)\n", len(stats.Failures))
		fmt.Printf("----------------------------------------\n")

		maxShow := 10
		if len(stats.Failures) > maxShow {
			fmt.Printf("(Showing first %d of %d failures)\n", maxShow, len(stats.Failures))
		}
		for i, f := range stats.Failures {
			if i >= maxShow {
				break
			}
			fmt.Printf("\nFailure #%d:\n", i+1)
			fmt.Printf("  File: %s (line %d, byte %d)\n", f.File, f.Line, f.Offset)
			fmt.Printf("  Error: %s\n", f.Error)
			preview := f.Hex
			if len(preview) > 80 {
				preview = preview[:80] + "..."
			}
			fmt.Printf("  Datagram: %s\n", preview)
		}
	}

	fmt.Printf("\n========================================\n")
	if stats.PacketFailures == 0 {
		fmt.Printf("✅ SUCCESS: All datagrams decoded\n")
	} else {
		fmt.Printf("⚠️  ISSUES FOUND: %d datagrams failed to decode\n", stats.PacketFailures)
	}
	fmt.Printf("========================================\n")
}
