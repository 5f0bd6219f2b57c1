package snapshot

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// Magic bytes identify snapshot files.
var magicBytes = []byte("VFTLSNAP")

const (
	filePrefix    = "snapshot-"
	fileExtension = ".snap"
	checksumSize  = 32
	headerVersion = 1

	// DefaultKeep is the default number of snapshot files retained.
	DefaultKeep = 5
)

var (
	ErrInvalidMagic     = errors.New("snapshot: invalid magic bytes")
	ErrChecksumMismatch = errors.New("snapshot: checksum mismatch")
	ErrNotFound         = errors.New("snapshot: not found")
	ErrNoSnapshots      = errors.New("snapshot: no snapshots available")
)

// Meta is caller-supplied summary metadata stored in the header.
type Meta struct {
	Fingerprint string `json:"fingerprint"`
	Holders     int    `json:"holders"`
	Allowances  int    `json:"allowances"`
	TotalSupply string `json:"total_supply"`
}

type snapshotHeader struct {
	Version   int    `json:"version"`
	CreatedAt int64  `json:"created_at"`
	Meta      Meta   `json:"meta"`
	Sealed    bool   `json:"sealed"`
	Algorithm string `json:"algorithm,omitempty"`
	Salt      []byte `json:"salt,omitempty"`
}

// Config configures the snapshot manager.
type Config struct {
	Dir string

	// Keep is the number of newest snapshots Prune retains.
	Keep int

	// Passphrase seals the data block when set.
	Passphrase []byte

	// Algorithm is the sealing algorithm (aes-gcm, xchacha20-poly1305).
	Algorithm string
}

// DefaultConfig returns the default configuration for dir.
func DefaultConfig(dir string) Config {
	return Config{
		Dir:  dir,
		Keep: DefaultKeep,
	}
}

// Manager creates, lists, loads and prunes snapshot files.
type Manager struct {
	cfg Config
}

// NewManager creates the snapshot directory if needed.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("snapshot: dir is required")
	}
	if len(cfg.Passphrase) > 0 && len(cfg.Passphrase) < MinPassphraseLength {
		return nil, ErrPassphraseTooWeak
	}
	if err := os.MkdirAll(cfg.Dir, 0750); err != nil {
		return nil, fmt.Errorf("snapshot: create dir: %w", err)
	}
	if cfg.Keep <= 0 {
		cfg.Keep = DefaultKeep
	}
	return &Manager{cfg: cfg}, nil
}

// Info contains metadata about a snapshot.
type Info struct {
	ID        string `json:"id"`
	CreatedAt int64  `json:"created_at"`
	Size      int64  `json:"size"`
	Path      string `json:"path"`
	Checksum  string `json:"checksum"`
	Sealed    bool   `json:"sealed"`
	Meta      Meta   `json:"meta"`
}

// Create writes data as a new snapshot file. The file appears under its
// final name only once fully written and synced.
func (m *Manager) Create(data []byte, meta Meta) (*Info, error) {
	now := time.Now()
	id := ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String()

	hdr := snapshotHeader{
		Version:   headerVersion,
		CreatedAt: now.UnixMilli(),
		Meta:      meta,
	}
	if len(m.cfg.Passphrase) > 0 {
		salt, err := newSalt()
		if err != nil {
			return nil, err
		}
		hdr.Sealed = true
		hdr.Algorithm = m.cfg.Algorithm
		if hdr.Algorithm == "" {
			hdr.Algorithm = AlgorithmAESGCM
		}
		hdr.Salt = salt
	}

	hdrJSON, err := json.Marshal(hdr)
	if err != nil {
		return nil, fmt.Errorf("snapshot: marshal header: %w", err)
	}

	if hdr.Sealed {
		s, err := newSealer(m.cfg.Passphrase, hdr.Salt, hdr.Algorithm)
		if err != nil {
			return nil, err
		}
		if data, err = s.seal(data, hdrJSON); err != nil {
			return nil, err
		}
	}

	tempPath := filepath.Join(m.cfg.Dir, filePrefix+id+".tmp")
	file, err := os.Create(tempPath)
	if err != nil {
		return nil, fmt.Errorf("snapshot: create temp file: %w", err)
	}
	defer os.Remove(tempPath)

	sum, err := writeFile(file, hdrJSON, data)
	if err != nil {
		file.Close()
		return nil, err
	}
	if err := file.Close(); err != nil {
		return nil, fmt.Errorf("snapshot: close: %w", err)
	}

	stat, err := os.Stat(tempPath)
	if err != nil {
		return nil, err
	}

	finalPath := filepath.Join(m.cfg.Dir, filePrefix+id+fileExtension)
	if err := os.Rename(tempPath, finalPath); err != nil {
		return nil, fmt.Errorf("snapshot: rename: %w", err)
	}

	return &Info{
		ID:        id,
		CreatedAt: hdr.CreatedAt,
		Size:      stat.Size(),
		Path:      finalPath,
		Checksum:  hex.EncodeToString(sum),
		Sealed:    hdr.Sealed,
		Meta:      meta,
	}, nil
}

func writeFile(file *os.File, hdrJSON, data []byte) ([]byte, error) {
	hash := sha256.New()
	w := io.MultiWriter(file, hash)

	if _, err := w.Write(magicBytes); err != nil {
		return nil, fmt.Errorf("snapshot: write magic: %w", err)
	}
	if err := writeBlock(w, hdrJSON); err != nil {
		return nil, fmt.Errorf("snapshot: write header: %w", err)
	}
	if err := writeBlock(w, data); err != nil {
		return nil, fmt.Errorf("snapshot: write data: %w", err)
	}

	// Checksum trailer is not part of the hash.
	sum := hash.Sum(nil)
	if _, err := file.Write(sum); err != nil {
		return nil, fmt.Errorf("snapshot: write checksum: %w", err)
	}
	if err := file.Sync(); err != nil {
		return nil, fmt.Errorf("snapshot: sync: %w", err)
	}
	return sum, nil
}

func writeBlock(w io.Writer, b []byte) error {
	var n [4]byte
	binary.BigEndian.PutUint32(n[:], uint32(len(b)))
	if _, err := w.Write(n[:]); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

func readBlock(r io.Reader) ([]byte, error) {
	var n [4]byte
	if _, err := io.ReadFull(r, n[:]); err != nil {
		return nil, err
	}
	b := make([]byte, binary.BigEndian.Uint32(n[:]))
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return b, nil
}

// Load returns the data of the latest valid snapshot. Corrupt files are
// skipped in favour of older ones.
func (m *Manager) Load() ([]byte, *Info, error) {
	snapshots, err := m.List()
	if err != nil {
		return nil, nil, err
	}

	for i := len(snapshots) - 1; i >= 0; i-- {
		data, info, err := m.loadFile(snapshots[i].Path)
		if err == nil {
			return data, info, nil
		}
		if errors.Is(err, ErrChecksumMismatch) || errors.Is(err, ErrInvalidMagic) {
			continue
		}
		return nil, nil, err
	}
	return nil, nil, ErrNoSnapshots
}

// LoadID returns the data of the snapshot with the given ID.
func (m *Manager) LoadID(id string) ([]byte, *Info, error) {
	if _, err := ulid.ParseStrict(id); err != nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	path := filepath.Join(m.cfg.Dir, filePrefix+id+fileExtension)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, nil, err
	}
	return m.loadFile(path)
}

func (m *Manager) loadFile(path string) ([]byte, *Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, nil, err
	}
	if stat.Size() < int64(len(magicBytes))+checksumSize {
		return nil, nil, ErrChecksumMismatch
	}

	bodyLen := stat.Size() - checksumSize
	expected := make([]byte, checksumSize)
	if _, err := io.ReadFull(io.NewSectionReader(f, bodyLen, checksumSize), expected); err != nil {
		return nil, nil, err
	}
	h := sha256.New()
	if _, err := io.CopyN(h, io.NewSectionReader(f, 0, bodyLen), bodyLen); err != nil {
		return nil, nil, err
	}
	if !bytes.Equal(h.Sum(nil), expected) {
		return nil, nil, ErrChecksumMismatch
	}

	br := bufio.NewReader(io.NewSectionReader(f, 0, bodyLen))
	hdr, hdrJSON, err := readHeader(br)
	if err != nil {
		return nil, nil, err
	}
	data, err := readBlock(br)
	if err != nil {
		return nil, nil, fmt.Errorf("snapshot: read data: %w", err)
	}

	if hdr.Sealed {
		if len(m.cfg.Passphrase) == 0 {
			return nil, nil, ErrPassphraseRequired
		}
		s, err := newSealer(m.cfg.Passphrase, hdr.Salt, hdr.Algorithm)
		if err != nil {
			return nil, nil, err
		}
		if data, err = s.open(data, hdrJSON); err != nil {
			return nil, nil, err
		}
	}

	info := infoFromHeader(path, hdr)
	info.Size = stat.Size()
	info.Checksum = hex.EncodeToString(expected)
	return data, info, nil
}

func readHeader(br *bufio.Reader) (snapshotHeader, []byte, error) {
	var hdr snapshotHeader

	magic := make([]byte, len(magicBytes))
	if _, err := io.ReadFull(br, magic); err != nil {
		return hdr, nil, err
	}
	if !bytes.Equal(magic, magicBytes) {
		return hdr, nil, ErrInvalidMagic
	}

	hdrJSON, err := readBlock(br)
	if err != nil {
		return hdr, nil, fmt.Errorf("snapshot: read header: %w", err)
	}
	if len(hdrJSON) == 0 {
		return hdr, nil, fmt.Errorf("snapshot: empty header")
	}
	if err := json.Unmarshal(hdrJSON, &hdr); err != nil {
		return hdr, nil, fmt.Errorf("snapshot: unmarshal header: %w", err)
	}
	if hdr.Version != headerVersion {
		return hdr, nil, fmt.Errorf("snapshot: unsupported header version %d", hdr.Version)
	}
	return hdr, hdrJSON, nil
}

func infoFromHeader(path string, hdr snapshotHeader) *Info {
	return &Info{
		ID:        strings.TrimSuffix(strings.TrimPrefix(filepath.Base(path), filePrefix), fileExtension),
		CreatedAt: hdr.CreatedAt,
		Path:      path,
		Sealed:    hdr.Sealed,
		Meta:      hdr.Meta,
	}
}

// List returns snapshot files oldest first, with header metadata. Files
// whose header cannot be read are listed without it.
func (m *Manager) List() ([]*Info, error) {
	entries, err := os.ReadDir(m.cfg.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, filePrefix) && strings.HasSuffix(name, fileExtension) {
			paths = append(paths, filepath.Join(m.cfg.Dir, name))
		}
	}
	sort.Strings(paths)

	infos := make([]*Info, 0, len(paths))
	for _, p := range paths {
		stat, err := os.Stat(p)
		if err != nil {
			continue
		}
		info := m.peek(p)
		info.Size = stat.Size()
		infos = append(infos, info)
	}
	return infos, nil
}

func (m *Manager) peek(path string) *Info {
	f, err := os.Open(path)
	if err != nil {
		return infoFromHeader(path, snapshotHeader{})
	}
	defer f.Close()

	hdr, _, err := readHeader(bufio.NewReader(f))
	if err != nil {
		return infoFromHeader(path, snapshotHeader{})
	}
	return infoFromHeader(path, hdr)
}

// Prune deletes all but the newest Keep snapshots. It returns the number
// of files removed.
func (m *Manager) Prune() (int, error) {
	infos, err := m.List()
	if err != nil {
		return 0, err
	}
	if len(infos) <= m.cfg.Keep {
		return 0, nil
	}

	removed := 0
	for _, info := range infos[:len(infos)-m.cfg.Keep] {
		if err := os.Remove(info.Path); err != nil && !os.IsNotExist(err) {
			return removed, fmt.Errorf("snapshot: prune %s: %w", info.ID, err)
		}
		removed++
	}
	return removed, nil
}
