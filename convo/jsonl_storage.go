package convo

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/MoonshotAI/kosong/chat"
)

// JSONLStorage is a LinearStorage that appends one compact JSON object
// per line to a file, restoring the history from it on construction —
// the Go equivalent of original_source's JsonlLinearStorage. This stays
// on encoding/json + os rather than a third-party serializer: the wire
// format here IS exactly what json.Marshal with no indentation already
// produces, one object per line, so no library in the example pack
// offers anything beyond what the standard library already does for
// this literal contract.
type JSONLStorage struct {
	mu       sync.Mutex
	messages []chat.Message
	path     string
	file     *os.File
}

var _ LinearStorage = (*JSONLStorage)(nil)

// OpenJSONLStorage opens (creating if needed) the JSONL file at path,
// restoring any messages already recorded in it.
func OpenJSONLStorage(path string) (*JSONLStorage, error) {
	s := &JSONLStorage{path: path}

	if f, err := os.Open(path); err == nil {
		defer f.Close()
		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
		for scanner.Scan() {
			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}
			var msg chat.Message
			if err := json.Unmarshal(line, &msg); err != nil {
				return nil, fmt.Errorf("convo: restoring %s: %w", path, err)
			}
			s.messages = append(s.messages, msg)
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("convo: restoring %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("convo: opening %s: %w", path, err)
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("convo: opening %s for append: %w", path, err)
	}
	s.file = file
	return s, nil
}

// ListMessages returns a snapshot copy of the restored + appended history.
func (s *JSONLStorage) ListMessages() []chat.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]chat.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// AppendMessage appends message in memory and writes it as one compact
// JSON line to the backing file.
func (s *JSONLStorage) AppendMessage(_ context.Context, message chat.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	line, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("convo: encoding message: %w", err)
	}
	line = append(line, '\n')
	if _, err := s.file.Write(line); err != nil {
		return fmt.Errorf("convo: writing %s: %w", s.path, err)
	}

	s.messages = append(s.messages, message)
	return nil
}

// Close closes the backing file.
func (s *JSONLStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}
