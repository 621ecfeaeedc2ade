package mirror

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/okcodes/github-assets-to-s3/internal/model"
)

var testRepo = model.Repository{Owner: "owner", Name: "repo"}

const testRunID = model.RunID("01890c24-905b-7122-b170-b60814e6ee06")

func paginate[T any](items []T, page, perPage int) ([]T, Page) {
	start := (page - 1) * perPage
	if start >= len(items) {
		return nil, Page{}
	}
	end := min(start+perPage, len(items))
	return items[start:end], Page{HasNext: end < len(items)}
}

type stubAPI struct {
	mu sync.Mutex

	byTag    map[string]model.Release
	byTagErr error

	releases         []model.Release
	listReleaseCalls int

	release model.Release
	getErr  error

	assets         []model.ReleaseAsset
	listAssetCalls int
	listAssetErr   error

	contents      map[int64]string
	unknownLength bool
	downloadErr   map[int64]error

	updateErr error
	updates   []ReleaseUpdate
}

func (s *stubAPI) GetReleaseByTag(ctx context.Context, repo model.Repository, tag string) (model.Release, error) {
	if s.byTagErr != nil {
		return model.Release{}, s.byTagErr
	}
	if r, ok := s.byTag[tag]; ok {
		return r, nil
	}
	return model.Release{}, fmt.Errorf("stub: release %q: %w", tag, ErrNotFound)
}

func (s *stubAPI) ListReleases(ctx context.Context, repo model.Repository, page, perPage int) ([]model.Release, Page, error) {
	s.mu.Lock()
	s.listReleaseCalls++
	s.mu.Unlock()
	items, meta := paginate(s.releases, page, perPage)
	return items, meta, nil
}

func (s *stubAPI) GetRelease(ctx context.Context, repo model.Repository, releaseID int64) (model.Release, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return model.Release{}, s.getErr
	}
	return s.release, nil
}

func (s *stubAPI) ListReleaseAssets(ctx context.Context, repo model.Repository, releaseID int64, page, perPage int) ([]model.ReleaseAsset, Page, error) {
	s.mu.Lock()
	s.listAssetCalls++
	s.mu.Unlock()
	if s.listAssetErr != nil {
		return nil, Page{}, s.listAssetErr
	}
	items, meta := paginate(s.assets, page, perPage)
	return items, meta, nil
}

func (s *stubAPI) DownloadAsset(ctx context.Context, repo model.Repository, assetID int64) (Download, error) {
	if err := s.downloadErr[assetID]; err != nil {
		return Download{}, err
	}
	data := s.contents[assetID]
	length := int64(len(data))
	if s.unknownLength {
		length = -1
	}
	return Download{Body: io.NopCloser(strings.NewReader(data)), ContentLength: length}, nil
}

func (s *stubAPI) UpdateRelease(ctx context.Context, repo model.Repository, releaseID int64, update ReleaseUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateErr != nil {
		return s.updateErr
	}
	s.updates = append(s.updates, update)
	s.release.Body = update.Body
	return nil
}

type stubStorage struct {
	mu      sync.Mutex
	objects map[string]string
	sizes   map[string]int64
	errKey  string
}

func newStubStorage() *stubStorage {
	return &stubStorage{objects: map[string]string{}, sizes: map[string]int64{}}
}

func (s *stubStorage) Put(ctx context.Context, key string, data io.Reader, size int64) error {
	if key == s.errKey {
		return errors.New("store failed")
	}
	b, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = string(b)
	s.sizes[key] = size
	return nil
}
