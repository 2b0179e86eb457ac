// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package classjson

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// segment is one step of a JSON path: an object key or an array index.
type segment struct {
	key     string
	index   int
	isIndex bool
}

// pathStack tracks the JSON path of the value being processed.
// The zero value is the document root.
type pathStack struct {
	segs []segment
}

func (p *pathStack) pushKey(key string) {
	p.segs = append(p.segs, segment{key: key})
}

func (p *pathStack) pushIndex(i int) {
	p.segs = append(p.segs, segment{index: i, isIndex: true})
}

func (p *pathStack) pop() {
	p.segs = p.segs[:len(p.segs)-1]
}

// String renders the path as $.key[0]["odd key"].
func (p *pathStack) String() string {
	if len(p.segs) == 0 {
		return "$"
	}

	var b strings.Builder
	b.WriteByte('$')
	for _, s := range p.segs {
		switch {
		case s.isIndex:
			b.WriteByte('[')
			b.WriteString(strconv.Itoa(s.index))
			b.WriteByte(']')
		case isIdentifier(s.key):
			b.WriteByte('.')
			b.WriteString(s.key)
		default:
			b.WriteByte('[')
			b.WriteString(strconv.Quote(s.key))
			b.WriteByte(']')
		}
	}

	return b.String()
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}

	return true
}

// tokenReader wraps the encoding/json tokenizer with depth accounting and
// uniform syntax errors. Numbers are always read as json.Number.
type tokenReader struct {
	dec      *json.Decoder
	maxDepth int
}

func newTokenReader(r io.Reader, maxDepth int) *tokenReader {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	return &tokenReader{dec: dec, maxDepth: maxDepth}
}

// next returns the next token. Running out of input is unexpected here.
func (tr *tokenReader) next() (json.Token, error) {
	tok, err := tr.dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, tr.syntaxError(err)
	}

	return tok, nil
}

// more reports whether the current array or object has another element.
func (tr *tokenReader) more() bool {
	return tr.dec.More()
}

// end checks that nothing but whitespace follows the top-level value.
func (tr *tokenReader) end() error {
	_, err := tr.dec.Token()
	switch {
	case errors.Is(err, io.EOF):
		return nil
	case err != nil:
		return tr.syntaxError(err)
	default:
		return tr.syntaxError(errors.New("unexpected data after top-level value"))
	}
}

// enter checks the nesting limit before descending into a container.
func (tr *tokenReader) enter(depth int, path *pathStack) error {
	if depth > tr.maxDepth {
		return fmt.Errorf("%s: %w", path, ErrMaxDepthExceeded)
	}

	return nil
}

func (tr *tokenReader) syntaxError(err error) error {
	var se *SyntaxError
	if errors.As(err, &se) {
		return se
	}

	return &SyntaxError{Offset: tr.dec.InputOffset(), Err: err}
}

// ParseValue parses JSON text into a [Value] without resolving class tags.
// Object members keep their input order; when a key repeats, the last value
// wins at the position of the first occurrence.
//
// Errors:
//   - [SyntaxError]: data is not a single well-formed JSON value
//   - [ErrMaxDepthExceeded]: nesting exceeds [DefaultMaxDepth]
func ParseValue(data []byte) (Value, error) {
	tr := newTokenReader(bytes.NewReader(data), DefaultMaxDepth)
	p := &valueParser{tr: tr}

	tok, err := tr.next()
	if err != nil {
		return Value{}, err
	}
	v, err := p.value(tok, 0)
	if err != nil {
		return Value{}, err
	}
	if err := tr.end(); err != nil {
		return Value{}, err
	}

	return v, nil
}

// valueParser builds ordered Values from tokens.
type valueParser struct {
	tr   *tokenReader
	path pathStack
}

func (p *valueParser) value(tok json.Token, depth int) (Value, error) {
	switch t := tok.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case json.Number:
		return Number(t), nil
	case string:
		return String(t), nil
	case json.Delim:
		if err := p.tr.enter(depth+1, &p.path); err != nil {
			return Value{}, err
		}
		if t == '[' {
			return p.array(depth + 1)
		}
		return p.object(depth + 1)
	default:
		return Value{}, p.tr.syntaxError(fmt.Errorf("unexpected token %v", tok))
	}
}

func (p *valueParser) array(depth int) (Value, error) {
	items := []Value{}
	for p.tr.more() {
		tok, err := p.tr.next()
		if err != nil {
			return Value{}, err
		}
		p.path.pushIndex(len(items))
		v, err := p.value(tok, depth)
		p.path.pop()
		if err != nil {
			return Value{}, err
		}
		items = append(items, v)
	}
	if _, err := p.tr.next(); err != nil { // ']'
		return Value{}, err
	}

	return Array(items...), nil
}

func (p *valueParser) object(depth int) (Value, error) {
	members := []Member{}
	var index map[string]int
	for p.tr.more() {
		key, err := readKey(p.tr)
		if err != nil {
			return Value{}, err
		}
		tok, err := p.tr.next()
		if err != nil {
			return Value{}, err
		}
		p.path.pushKey(key)
		v, err := p.value(tok, depth)
		p.path.pop()
		if err != nil {
			return Value{}, err
		}

		if index == nil {
			index = make(map[string]int)
		}
		if i, dup := index[key]; dup {
			members[i].Value = v
			continue
		}
		index[key] = len(members)
		members = append(members, Member{Key: key, Value: v})
	}
	if _, err := p.tr.next(); err != nil { // '}'
		return Value{}, err
	}

	return Object(members...), nil
}

// readKey reads an object key token.
func readKey(tr *tokenReader) (string, error) {
	tok, err := tr.next()
	if err != nil {
		return "", err
	}
	key, ok := tok.(string)
	if !ok {
		return "", tr.syntaxError(fmt.Errorf("object key is %v, want string", tok))
	}

	return key, nil
}
