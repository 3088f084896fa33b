package scanner

import (
	"errors"
	"io"
	"testing"

	"github.com/jschulte/rtf-toolkit/security"
)

func FuzzScanner(f *testing.F) {
	f.Add([]byte(`{\rtf1\ansi Hello, world!\par}`))
	f.Add([]byte(`{\rtf1{\fonttbl{\f0\froman Times;}}}`))
	f.Add([]byte(`\'e9\u8217?\~\-\_`))
	f.Add([]byte(`\u-32768?\u65535?`))
	f.Add([]byte(`{{{{{{`))
	f.Add([]byte(`\`))

	f.Fuzz(func(t *testing.T, data []byte) {
		s, err := New(data, Config{Limits: security.Limits{
			MaxDocumentSize:      1 << 16,
			MaxTextRunSize:       1 << 10,
			MaxControlWordLength: 32,
			MaxParamDigits:       10,
		}})
		if err != nil {
			return
		}
		for {
			tok, err := s.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				var le *security.LimitError
				if !errors.As(err, &le) {
					t.Fatalf("non-limit error from scanner: %v", err)
				}
				return
			}
			if tok.Pos.Offset > len(data) {
				t.Fatalf("token position %d beyond input length %d", tok.Pos.Offset, len(data))
			}
		}
	})
}
