// Package books is a small book catalog whose reads are served through a
// method cache. Updates do not reach the cache unless the service runs with
// the write-through policy; Clear is the explicit invalidation.
package books

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/goliatone/go-method-cache/methodcache"
	"github.com/goliatone/go-method-cache/pkg/di"
)

// GetBookCacheName names the cache behind Service.GetBook.
const GetBookCacheName = "BookService.GetBook"

// Service is the book catalog.
type Service struct {
	store  *Store
	books  *methodcache.Cache[int64, Book]
	logger *zap.Logger
}

// NewService builds a Service whose GetBook is cached in container's backend.
// opts tune the cache, e.g. methodcache.WithPolicy(methodcache.PolicyWriteThrough).
func NewService(store *Store, container *di.Container, opts ...methodcache.Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("books: nil store")
	}
	if container == nil {
		return nil, errors.New("books: nil container")
	}

	books, err := di.NewMethodCache(container, GetBookCacheName, store.Find, opts...)
	if err != nil {
		return nil, err
	}

	return &Service{
		store:  store,
		books:  books,
		logger: container.Logger().Named("books"),
	}, nil
}

// AddBook stores a new book and returns its id.
func (s *Service) AddBook(ctx context.Context, b *Book) (int64, error) {
	id, err := s.store.Add(ctx, b)
	if err != nil {
		return 0, err
	}
	s.logger.Debug("book added", zap.Int64("id", id), zap.String("title", b.Title))
	return id, nil
}

// Update changes the title of book id. The cached copy stays as it was unless
// the cache policy is write-through.
func (s *Service) Update(ctx context.Context, id int64, title string) error {
	err := s.books.Mutate(ctx, id, func(ctx context.Context) error {
		return s.store.UpdateTitle(ctx, id, title)
	})
	if err != nil {
		return err
	}
	s.logger.Debug("book updated",
		zap.Int64("id", id),
		zap.String("title", title),
		zap.Stringer("policy", s.books.Policy()),
	)
	return nil
}

// GetBook returns book id, from the cache when present.
func (s *Service) GetBook(ctx context.Context, id int64) (Book, error) {
	return s.books.Get(ctx, id)
}

// Clear drops the cached copy of book id.
func (s *Service) Clear(ctx context.Context, id int64) error {
	return s.books.Invalidate(ctx, id)
}

// Cache exposes the method cache behind GetBook.
func (s *Service) Cache() *methodcache.Cache[int64, Book] {
	return s.books
}
