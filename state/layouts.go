package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/zhangyunhao116/skipmap"

	"github.com/Iamfittz/aptos-core/bcs"
	"github.com/Iamfittz/aptos-core/log"
	"github.com/Iamfittz/aptos-core/move"
	"github.com/Iamfittz/aptos-core/rpc/client"
)

// LayoutSource fetches the declared field list of a struct identity
// from module metadata (the ledger's published modules, a fixture
// directory, or a peer node).
type LayoutSource interface {
	FetchLayout(st *move.StructTag, version Version) (*move.StructLayout, error)
}

// LayoutField is one field of a stored layout record
type LayoutField struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// LayoutRecord is the JSON form layouts are stored and served in
type LayoutRecord struct {
	StructTag string        `json:"struct_tag,omitempty"`
	Fields    []LayoutField `json:"fields"`
}

// ParseLayoutRecord parse a stored layout record
func ParseLayoutRecord(raw []byte) (*move.StructLayout, error) {
	var record LayoutRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("malformed layout record: %w", err)
	}
	return record.Layout()
}

// Layout build the struct layout a record declares
func (r *LayoutRecord) Layout() (*move.StructLayout, error) {
	layout := &move.StructLayout{Fields: make([]move.StructField, 0, len(r.Fields))}
	for _, field := range r.Fields {
		tag, err := move.ParseTypeTag(field.Type)
		if err != nil {
			return nil, fmt.Errorf("layout field %q: %w", field.Name, err)
		}
		layout.Fields = append(layout.Fields, move.StructField{Name: field.Name, Type: tag})
	}
	return layout, nil
}

// LayoutRecordOf is the inverse of ParseLayoutRecord
func LayoutRecordOf(key string, layout *move.StructLayout) *LayoutRecord {
	record := &LayoutRecord{StructTag: key, Fields: make([]LayoutField, 0, len(layout.Fields))}
	for _, field := range layout.Fields {
		record.Fields = append(record.Fields, LayoutField{Name: field.Name, Type: field.Type.String()})
	}
	return record
}

// CachedLayoutResolver caches immutable layouts keyed by
// address::module::name. Concurrent misses on the same identity may
// each fetch; the first stored layout wins and later fetch results
// are discarded.
type CachedLayoutResolver struct {
	source LayoutSource
	cache  *skipmap.StringMap[*move.StructLayout]
}

// NewCachedLayoutResolver wrap source with a concurrent cache
func NewCachedLayoutResolver(source LayoutSource) *CachedLayoutResolver {
	return &CachedLayoutResolver{
		source: source,
		cache:  skipmap.NewString[*move.StructLayout](),
	}
}

// At get a layout resolver view pinned to one ledger version
func (r *CachedLayoutResolver) At(version Version) bcs.LayoutResolver {
	return &layoutView{resolver: r, version: version}
}

type layoutView struct {
	resolver *CachedLayoutResolver
	version  Version
}

func (v *layoutView) ResolveLayout(st *move.StructTag) (*move.StructLayout, error) {
	r := v.resolver
	if layout, ok := r.cache.Load(st.Key()); ok {
		return layout, nil
	}
	layout, err := r.source.FetchLayout(st, v.version)
	if err != nil {
		return nil, err
	}
	actual, _ := r.cache.LoadOrStore(st.Key(), layout)
	return actual, nil
}

// StoreLayoutSource reads layout records persisted in the versioned
// store under the layout key family.
type StoreLayoutSource struct {
	store VersionedStore
}

// NewStoreLayoutSource layouts backed by the versioned store
func NewStoreLayoutSource(store VersionedStore) *StoreLayoutSource {
	return &StoreLayoutSource{store: store}
}

// FetchLayout implement LayoutSource
func (s *StoreLayoutSource) FetchLayout(st *move.StructTag, version Version) (*move.StructLayout, error) {
	raw, err := s.store.Get(LayoutKey(st.Address, st.Module, st.Name), version)
	if errors.Is(err, ErrAbsent) {
		return nil, notFound(KindStructLayout, st.Key(), version)
	}
	if err != nil {
		return nil, err
	}
	return ParseLayoutRecord(raw)
}

// DirLayoutSource serves layout records from *.json fixture files in
// one directory, reloading files as they appear or change.
type DirLayoutSource struct {
	dir string

	mu      sync.RWMutex
	layouts map[string]*move.StructLayout
}

// NewDirLayoutSource load all layout files in dir
func NewDirLayoutSource(dir string) (*DirLayoutSource, error) {
	s := &DirLayoutSource{dir: dir, layouts: make(map[string]*move.StructLayout)}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		if err := s.loadFile(filepath.Join(dir, entry.Name())); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Watch reload layout files on create and write events until stop is
// closed
func (s *DirLayoutSource) Watch(stop <-chan struct{}) error {
	watch, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watch.Add(s.dir); err != nil {
		_ = watch.Close()
		return err
	}
	go s.watchLoop(watch, stop)
	return nil
}

func (s *DirLayoutSource) watchLoop(watch *fsnotify.Watcher, stop <-chan struct{}) {
	log.Info("start layout dir watch", "dir", s.dir)
	defer func() {
		log.Info("stop layout dir watch", "dir", s.dir)
		_ = watch.Close()
	}()
	for {
		select {
		case <-stop:
			return
		case ev, ok := <-watch.Events:
			if !ok {
				return
			}
			log.Trace("layout dir watch event", "event", ev)
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !strings.HasSuffix(ev.Name, ".json") {
				continue
			}
			if err := s.loadFile(ev.Name); err != nil {
				log.Warn("reload layout file failed", "file", ev.Name, "err", err)
			}
		case err, ok := <-watch.Errors:
			if !ok {
				return
			}
			log.Warn("layout dir watch error", "err", err)
		}
	}
}

func (s *DirLayoutSource) loadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var record LayoutRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return fmt.Errorf("malformed layout file %v: %w", path, err)
	}
	tag, err := move.ParseTypeTag(record.StructTag)
	if err != nil {
		return fmt.Errorf("layout file %v: %w", path, err)
	}
	st, ok := tag.(*move.StructTag)
	if !ok {
		return fmt.Errorf("layout file %v: %v is not a struct tag", path, record.StructTag)
	}
	layout, err := record.Layout()
	if err != nil {
		return fmt.Errorf("layout file %v: %w", path, err)
	}
	s.mu.Lock()
	s.layouts[st.Key()] = layout
	s.mu.Unlock()
	log.Info("loaded struct layout", "struct", st.Key(), "fields", len(layout.Fields), "file", filepath.Base(path))
	return nil
}

// FetchLayout implement LayoutSource (fixture files are not
// versioned, the version is ignored)
func (s *DirLayoutSource) FetchLayout(st *move.StructTag, version Version) (*move.StructLayout, error) {
	s.mu.RLock()
	layout, ok := s.layouts[st.Key()]
	s.mu.RUnlock()
	if !ok {
		return nil, notFound(KindStructLayout, st.Key(), version)
	}
	return layout, nil
}

// RemoteLayoutSource fetches layout records from a peer node's
// layouts endpoint.
type RemoteLayoutSource struct {
	baseURL string
}

// NewRemoteLayoutSource layouts served by the peer at baseURL
func NewRemoteLayoutSource(baseURL string) *RemoteLayoutSource {
	return &RemoteLayoutSource{baseURL: strings.TrimSuffix(baseURL, "/")}
}

// FetchLayout implement LayoutSource
func (s *RemoteLayoutSource) FetchLayout(st *move.StructTag, version Version) (*move.StructLayout, error) {
	reqURL := fmt.Sprintf("%v/layouts/%v", s.baseURL, url.PathEscape(st.Key()))
	if version != LatestVersion {
		reqURL = fmt.Sprintf("%v?version=%v", reqURL, version)
	}
	var record LayoutRecord
	err := client.RPCGet(&record, reqURL)
	if errors.Is(err, client.ErrNotFound) {
		return nil, notFound(KindStructLayout, st.Key(), version)
	}
	if err != nil {
		return nil, err
	}
	return record.Layout()
}

// ChainedLayoutSource tries each source in turn, moving on when the
// layout is not found.
type ChainedLayoutSource []LayoutSource

// FetchLayout implement LayoutSource
func (c ChainedLayoutSource) FetchLayout(st *move.StructTag, version Version) (*move.StructLayout, error) {
	var lastErr error
	for _, source := range c {
		layout, err := source.FetchLayout(st, version)
		if err == nil {
			return layout, nil
		}
		var nf *NotFoundError
		if !errors.As(err, &nf) {
			return nil, err
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = notFound(KindStructLayout, st.Key(), version)
	}
	return nil, lastErr
}
