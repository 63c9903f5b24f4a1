package docfile

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// maxTextLines caps plain-text content so a large file cannot blow up the
// prompt context.
const maxTextLines = 100

type TextDecoder struct{}

func (TextDecoder) Decode(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open text file: %w", err)
	}
	defer f.Close()

	var sb strings.Builder
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	count := 0
	for scanner.Scan() && count < maxTextLines {
		sb.WriteString(scanner.Text())
		sb.WriteString("\n")
		count++
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("read text file: %w", err)
	}

	return sb.String(), nil
}

var _ Decoder = TextDecoder{}
