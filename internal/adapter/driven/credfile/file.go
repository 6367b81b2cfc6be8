// Package credfile provides CredentialSource adapters backed by credential
// files, in-binary lists, and combinations of other sources.
package credfile

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/ericfisherdev/credgate/internal/domain/model"
	"github.com/ericfisherdev/credgate/internal/domain/port/driven"
)

var _ driven.CredentialSource = (*File)(nil)

// Format identifies a credential file encoding.
type Format string

const (
	FormatTSV  Format = "tsv"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatForPath picks the format from the file extension. Unknown extensions
// fall back to TSV, the layout of the classic tab-separated user database.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".toml":
		return FormatTOML
	default:
		return FormatTSV
	}
}

// File loads credentials from a file on every call, so edits are picked up by
// the next reload. A missing file is an error.
type File struct {
	Path   string
	Format Format // Derived from Path when empty.
}

// NewFile creates a File source with the format derived from the extension.
func NewFile(path string) *File {
	return &File{Path: path, Format: FormatForPath(path)}
}

// LoadCredentials reads and parses the file.
func (f *File) LoadCredentials(_ context.Context) ([]model.Credential, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("read credentials file: %w", err)
	}

	format := f.Format
	if format == "" {
		format = FormatForPath(f.Path)
	}

	var creds []model.Credential
	switch format {
	case FormatTSV:
		creds, err = parseTSV(data)
	case FormatYAML:
		creds, err = parseYAML(data)
	case FormatTOML:
		creds, err = parseTOML(data)
	default:
		err = fmt.Errorf("unsupported format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", f.Path, err)
	}
	return creds, nil
}

// parseTSV reads "username<TAB>secret[<TAB>status]" lines. Blank lines and
// lines starting with '#' are skipped, as are rows whose status is disabled.
func parseTSV(data []byte) ([]model.Credential, error) {
	var creds []model.Credential

	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) < 2 || len(fields) > 3 {
			return nil, fmt.Errorf("line %d: expected 2 or 3 tab-separated fields, got %d", lineNo, len(fields))
		}
		if fields[0] == "" {
			return nil, fmt.Errorf("line %d: username is required", lineNo)
		}

		if len(fields) == 3 {
			status, err := model.ParseAccountStatus(strings.ToLower(strings.TrimSpace(fields[2])))
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			if status == model.AccountStatusDisabled {
				continue
			}
		}

		creds = append(creds, model.NewStringCredential(fields[0], fields[1]))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return creds, nil
}

// document is the shared YAML/TOML layout.
//
//	credentials:            [[credential]]
//	  - username: demo      username = "demo"
//	    secret: mode        secret = "mode"
type document struct {
	Credentials []entry `yaml:"credentials" toml:"credential"`
}

type entry struct {
	Username string `yaml:"username" toml:"username"`
	Secret   string `yaml:"secret" toml:"secret"`
	Disabled bool   `yaml:"disabled" toml:"disabled"`
}

func parseYAML(data []byte) ([]model.Credential, error) {
	var doc document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return doc.credentials()
}

func parseTOML(data []byte) ([]model.Credential, error) {
	var doc document
	meta, err := toml.Decode(string(data), &doc)
	if err != nil {
		return nil, err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown key %q", undecoded[0].String())
	}
	return doc.credentials()
}

func (d document) credentials() ([]model.Credential, error) {
	creds := make([]model.Credential, 0, len(d.Credentials))
	for i, e := range d.Credentials {
		if e.Username == "" {
			return nil, fmt.Errorf("credential %d: username is required", i)
		}
		if e.Disabled {
			continue
		}
		creds = append(creds, model.NewStringCredential(e.Username, e.Secret))
	}
	return creds, nil
}
