package jobstream

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/goccy/go-yaml"

	"github.com/byte4ever/taskgraph_transforms/transforms"
)

// Format selects the output encoding.
type Format string

const (
	// FormatYAML writes one YAML document per job.
	FormatYAML Format = "yaml"

	// FormatJSON writes one JSON object per line.
	FormatJSON Format = "json"
)

// ErrUnknownFormat is returned by ParseFormat.
var ErrUnknownFormat = errors.New("unknown output format")

// ParseFormat maps a flag value to a Format. The empty
// string selects YAML.
func ParseFormat(val string) (Format, error) {
	switch Format(val) {
	case "", FormatYAML:
		return FormatYAML, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, val)
	}
}

// Decode returns a sequence over the YAML documents of in.
// The stream is split on "---" markers and each document
// is read and decoded only when the sequence is pulled;
// empty documents are skipped.
func Decode(in io.Reader) transforms.Jobs {
	const errCtx = "decoding jobs"

	return func(yield func(transforms.Job, error) bool) {
		rd := bufio.NewReader(in)

		var doc bytes.Buffer

		idx := 0

		// emit decodes the buffered document and reports
		// whether iteration should continue.
		emit := func() bool {
			defer doc.Reset()

			if len(bytes.TrimSpace(doc.Bytes())) == 0 {
				return true
			}

			idx++

			var obj map[string]interface{}
			if err := yaml.Unmarshal(doc.Bytes(), &obj); err != nil {
				yield(nil, fmt.Errorf(
					"%s: document %d: %w", errCtx, idx, err,
				))

				return false
			}

			if obj == nil {
				return true
			}

			return yield(transforms.Job(obj), nil)
		}

		for {
			line, err := rd.ReadString('\n')

			if rest, ok := documentStart(line); ok {
				if !emit() {
					return
				}

				doc.WriteString(rest)
			} else {
				doc.WriteString(line)
			}

			if errors.Is(err, io.EOF) {
				emit()
				return
			}

			if err != nil {
				yield(nil, fmt.Errorf("%s: %w", errCtx, err))
				return
			}
		}
	}
}

// documentStart reports whether line is a document
// boundary and returns any content that follows the
// marker on the same line.
func documentStart(line string) (string, bool) {
	trimmed := strings.TrimRight(line, "\r\n")

	switch {
	case trimmed == "---", trimmed == "...":
		return "", true
	case strings.HasPrefix(trimmed, "--- "),
		strings.HasPrefix(trimmed, "---\t"):
		return trimmed[4:] + "\n", true
	default:
		return "", false
	}
}

// Encode pulls every job from jobs and writes it to out.
// It returns the number of jobs written and stops at the
// first error, from the sequence or from out.
func Encode(
	out io.Writer,
	jobs transforms.Jobs,
	format Format,
) (int, error) {
	const errCtx = "encoding jobs"

	var write func(transforms.Job, bool) error

	switch format {
	case FormatYAML, "":
		write = func(jb transforms.Job, first bool) error {
			return writeYAML(out, jb, first)
		}
	case FormatJSON:
		enc := json.NewEncoder(out)
		write = func(jb transforms.Job, _ bool) error {
			return enc.Encode(jb)
		}
	default:
		return 0, fmt.Errorf(
			"%s: %w: %q", errCtx, ErrUnknownFormat, format,
		)
	}

	count := 0

	for jb, err := range jobs {
		if err != nil {
			return count, fmt.Errorf("%s: %w", errCtx, err)
		}

		if err := write(jb, count == 0); err != nil {
			return count, fmt.Errorf(
				"%s: job %d: %w", errCtx, count, err,
			)
		}

		count++
	}

	return count, nil
}

func writeYAML(
	out io.Writer,
	jb transforms.Job,
	first bool,
) error {
	buf, err := yaml.Marshal(map[string]interface{}(jb))
	if err != nil {
		return fmt.Errorf("marshaling job: %w", err)
	}

	if !first {
		if _, err := out.Write(
			[]byte("---\n"),
		); err != nil {
			return fmt.Errorf("writing separator: %w", err)
		}
	}

	if _, err := out.Write(buf); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	return nil
}
