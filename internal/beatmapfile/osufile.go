package beatmapfile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// File is the subset of a .osu chart file needed to validate a download.
type File struct {
	FormatVersion int
	Mode          int
	Artist        string
	Title         string
	Creator       string
	Version       string
	BeatmapID     int
	HP            float64
	CS            float64
	OD            float64
	AR            float64
	HitObjects    int
}

type section int

const (
	secNone section = iota
	secGeneral
	secMetadata
	secDifficulty
	secHitObjects
)

// DecodeFile opens path and decodes it.
func DecodeFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return Decode(f)
}

// Decode reads a .osu chart file. It fails when the header is not
// "osu file format vN" or when [General], [Metadata] or [Difficulty] is absent.
func Decode(r io.Reader) (*File, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	var header string
	for sc.Scan() {
		line := strings.TrimSpace(strings.TrimPrefix(sc.Text(), "\ufeff"))
		if line == "" {
			continue
		}
		header = line
		break
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	const prefix = "osu file format v"
	if !strings.HasPrefix(strings.ToLower(header), prefix) {
		return nil, fmt.Errorf("invalid .osu header: %q", header)
	}
	version, err := strconv.Atoi(strings.TrimSpace(header[len(prefix):]))
	if err != nil {
		return nil, fmt.Errorf("invalid .osu version in header %q: %w", header, err)
	}

	out := &File{FormatVersion: version, AR: -1}
	seen := map[section]bool{}
	sec := secNone
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			switch strings.ToLower(line) {
			case "[general]":
				sec = secGeneral
			case "[metadata]":
				sec = secMetadata
			case "[difficulty]":
				sec = secDifficulty
			case "[hitobjects]":
				sec = secHitObjects
			default:
				sec = secNone
			}
			seen[sec] = true
			continue
		}

		if sec == secHitObjects {
			out.HitObjects++
			continue
		}
		k, v := splitKeyVal(line)
		switch sec {
		case secGeneral:
			if strings.EqualFold(k, "Mode") {
				out.Mode, _ = strconv.Atoi(v)
			}
		case secMetadata:
			switch strings.ToLower(k) {
			case "artist":
				out.Artist = v
			case "title":
				out.Title = v
			case "creator":
				out.Creator = v
			case "version":
				out.Version = v
			case "beatmapid":
				out.BeatmapID, _ = strconv.Atoi(v)
			}
		case secDifficulty:
			f, _ := strconv.ParseFloat(v, 64)
			switch strings.ToLower(k) {
			case "hpdrainrate":
				out.HP = f
			case "circlesize":
				out.CS = f
			case "overalldifficulty":
				out.OD = f
			case "approachrate":
				out.AR = f
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	for _, want := range []struct {
		sec  section
		name string
	}{{secGeneral, "General"}, {secMetadata, "Metadata"}, {secDifficulty, "Difficulty"}} {
		if !seen[want.sec] {
			return nil, fmt.Errorf("missing [%s] section", want.name)
		}
	}
	// Old formats have no ApproachRate and reuse OverallDifficulty.
	if out.AR < 0 {
		out.AR = out.OD
	}
	return out, nil
}

func splitKeyVal(line string) (string, string) {
	k, v, ok := strings.Cut(line, ":")
	if !ok {
		return strings.TrimSpace(line), ""
	}
	return strings.TrimSpace(k), strings.TrimSpace(v)
}
