package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/playersession/internal/model"
	"github.com/mcoot/playersession/internal/storage"
)

type StorageSuite struct {
	suite.Suite
	dir     string
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.dir = s.T().TempDir()
	var err error
	s.storage, err = New(s.dir)
	s.Require().NoError(err)
	s.ctx = context.Background()
}

func (s *StorageSuite) TestNewRequiresDir() {
	_, err := New("")
	s.Error(err)
}

func (s *StorageSuite) TestNewCreatesNestedDir() {
	dir := filepath.Join(s.T().TempDir(), "a", "b")
	_, err := New(dir)
	s.Require().NoError(err)

	info, err := os.Stat(dir)
	s.Require().NoError(err)
	s.True(info.IsDir())
}

func (s *StorageSuite) TestReadMissingDocument() {
	_, err := s.storage.ReadDocument(s.ctx, storage.CredentialsDocument)
	s.ErrorIs(err, model.ErrDocumentNotFound)
}

func (s *StorageSuite) TestWriteAndRead() {
	err := s.storage.WriteDocument(s.ctx, storage.PositionsDocument, []byte(`{"alice":{"x":1,"y":2}}`))
	s.Require().NoError(err)

	data, err := s.storage.ReadDocument(s.ctx, storage.PositionsDocument)
	s.Require().NoError(err)
	s.JSONEq(`{"alice":{"x":1,"y":2}}`, string(data))
}

func (s *StorageSuite) TestWriteUsesJSONFileInDataDir() {
	_ = s.storage.WriteDocument(s.ctx, storage.CredentialsDocument, []byte(`{}`))

	data, err := os.ReadFile(filepath.Join(s.dir, "credentials.json"))
	s.Require().NoError(err)
	s.Equal(`{}`, string(data))
}

func (s *StorageSuite) TestOverwriteLeavesNoTempFiles() {
	for i := 0; i < 5; i++ {
		err := s.storage.WriteDocument(s.ctx, storage.CredentialsDocument, []byte(fmt.Sprintf(`{"n":"%d"}`, i)))
		s.Require().NoError(err)
	}

	entries, err := os.ReadDir(s.dir)
	s.Require().NoError(err)
	s.Len(entries, 1)
	s.Equal("credentials.json", entries[0].Name())
}

func (s *StorageSuite) TestWriteHonoursCancelledContext() {
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()

	err := s.storage.WriteDocument(ctx, storage.CredentialsDocument, []byte(`{}`))
	s.ErrorIs(err, context.Canceled)
}

func (s *StorageSuite) TestConcurrentWritesNeverExposePartialDocument() {
	small := []byte(`{"a":"1"}`)
	large := make([]byte, 0, 64*1024)
	large = append(large, '{')
	for i := 0; i < 2000; i++ {
		if i > 0 {
			large = append(large, ',')
		}
		large = append(large, fmt.Sprintf(`"user%04d":"hash"`, i)...)
	}
	large = append(large, '}')

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			doc := small
			if i%2 == 0 {
				doc = large
			}
			_ = s.storage.WriteDocument(s.ctx, storage.CredentialsDocument, doc)
		}(i)
		go func() {
			defer wg.Done()
			data, err := s.storage.ReadDocument(s.ctx, storage.CredentialsDocument)
			if err != nil {
				return
			}
			s.True(string(data) == string(small) || string(data) == string(large))
		}()
	}
	wg.Wait()
}

func (s *StorageSuite) TestReloadAfterRestart() {
	_ = s.storage.WriteDocument(s.ctx, storage.PositionsDocument, []byte(`{"bob":{"x":3,"y":4}}`))

	reopened, err := New(s.dir)
	s.Require().NoError(err)

	data, err := reopened.ReadDocument(s.ctx, storage.PositionsDocument)
	s.Require().NoError(err)
	s.JSONEq(`{"bob":{"x":3,"y":4}}`, string(data))
}
