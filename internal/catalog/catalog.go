// Package catalog implements the product catalog: queries and updates over
// products and the lifecycle of each product's image file.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/erazemk/supermercado/internal/imaging"
	"github.com/erazemk/supermercado/internal/model"
	"github.com/erazemk/supermercado/internal/store"
)

var (
	// ErrNotFound is returned when the referenced product does not exist.
	ErrNotFound = errors.New("producto no encontrado")
	// ErrInvalidArgument is matched by every input validation error.
	ErrInvalidArgument = errors.New("argumento inválido")
)

// InvalidArgumentError carries a human readable validation message.
type InvalidArgumentError struct {
	Message string
}

func (e *InvalidArgumentError) Error() string { return e.Message }

func (e *InvalidArgumentError) Is(target error) bool { return target == ErrInvalidArgument }

func invalid(msg string) error {
	return &InvalidArgumentError{Message: msg}
}

// ImageStore persists image files and resolves their public references.
type ImageStore interface {
	Save(name string, data []byte) (string, error)
	Delete(ref string) error
	Exists(ref string) bool
}

// ImageUpload is an image file received from a client. Filename is only
// informational.
type ImageUpload struct {
	Filename string
	Content  io.Reader
}

// Service implements catalog operations on top of a database handle and an
// image store.
type Service struct {
	DB     *gorm.DB
	Images ImageStore
	Log    *zap.Logger
}

// NewService returns a catalog service.
func NewService(db *gorm.DB, images ImageStore, log *zap.Logger) *Service {
	return &Service{DB: db, Images: images, Log: log}
}

// ParseID parses a product identifier. Identifiers are assigned from 1, so
// zero, negative and non numeric values are rejected.
func ParseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, invalid("ID inválido")
	}
	return id, nil
}

func checkID(id int64) error {
	if id <= 0 {
		return invalid("ID inválido")
	}
	return nil
}

// ListProducts returns products ordered by id with their category.
func (s *Service) ListProducts(ctx context.Context, filter *model.ProductFilter) ([]model.Product, error) {
	products, err := store.ListProducts(ctx, s.DB, filter)
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []model.Product{}
	}
	return products, nil
}

// GetProduct returns the product with the given id and its category.
func (s *Service) GetProduct(ctx context.Context, id int64) (*model.Product, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	p, err := store.GetProduct(ctx, s.DB, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrNotFound
	}
	return p, nil
}

// CreateProduct stores a new product built from the sanitized fields and an
// optional image. New products are active unless estado says otherwise.
func (s *Service) CreateProduct(ctx context.Context, fields model.ProductFields, upload *ImageUpload) (*model.Product, error) {
	if fields.Name == nil || *fields.Name == "" {
		return nil, invalid("el nombre es obligatorio")
	}
	if err := s.validate(ctx, fields); err != nil {
		return nil, err
	}

	p := &model.Product{Active: true}
	fields.Apply(p)

	if upload != nil {
		ref, err := s.storeUpload(upload)
		if err != nil {
			return nil, err
		}
		p.Image = &ref
	}

	if err := store.CreateProduct(ctx, s.DB, p); err != nil {
		if p.Image != nil {
			s.removeImage(*p.Image)
		}
		return nil, err
	}

	s.Log.Info("product created", zap.Int64("id", p.ID), zap.String("name", p.Name))
	return s.GetProduct(ctx, p.ID)
}

// UpdateProduct applies the supplied fields to a product. When upload is
// set the image is replaced; otherwise clearImage removes it. The previous
// image file is deleted only after the record has been updated.
func (s *Service) UpdateProduct(ctx context.Context, id int64, fields model.ProductFields, upload *ImageUpload, clearImage bool) (*model.Product, error) {
	current, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if fields.Name != nil && *fields.Name == "" {
		return nil, invalid("el nombre no puede estar vacío")
	}
	if err := s.validate(ctx, fields); err != nil {
		return nil, err
	}

	replacing := upload != nil || clearImage

	var newRef string
	if upload != nil {
		if newRef, err = s.storeUpload(upload); err != nil {
			return nil, err
		}
	}

	if fields.Empty() {
		if replacing {
			var ref *string
			if newRef != "" {
				ref = &newRef
			}
			err = store.SetProductImage(ctx, s.DB, id, ref)
		}
	} else {
		cols := fields.Columns()
		if upload != nil {
			cols["imagen"] = newRef
		} else if clearImage {
			cols["imagen"] = nil
		}
		err = store.UpdateProduct(ctx, s.DB, id, cols)
	}
	if err != nil {
		if newRef != "" {
			s.removeImage(newRef)
		}
		return nil, err
	}

	if replacing && current.Image != nil && *current.Image != newRef {
		s.removeImage(*current.Image)
	}

	return s.GetProduct(ctx, id)
}

// DeleteProduct removes a product and then its image file.
func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	p, err := s.GetProduct(ctx, id)
	if err != nil {
		return err
	}

	if err := store.DeleteProduct(ctx, s.DB, id); err != nil {
		return err
	}
	if p.Image != nil {
		s.removeImage(*p.Image)
	}

	s.Log.Info("product deleted", zap.Int64("id", id))
	return nil
}

// UploadImage stores a new image for a product, replacing any previous one.
func (s *Service) UploadImage(ctx context.Context, id int64, upload *ImageUpload) (*model.Product, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	if upload == nil || upload.Content == nil {
		return nil, invalid("no se subió ninguna imagen")
	}
	return s.UpdateProduct(ctx, id, model.ProductFields{}, upload, false)
}

// DeleteImage removes a product's image file and clears its reference.
func (s *Service) DeleteImage(ctx context.Context, id int64) (*model.Product, error) {
	return s.UpdateProduct(ctx, id, model.ProductFields{}, nil, true)
}

// TotalStock returns the stock of all products, active or not. Failures are
// logged and reported as zero.
func (s *Service) TotalStock(ctx context.Context) int64 {
	total, err := store.TotalStock(ctx, s.DB)
	if err != nil {
		s.Log.Warn("stock total unavailable", zap.Error(err))
		return 0
	}
	return total
}

// ListCategories returns all categories.
func (s *Service) ListCategories(ctx context.Context) ([]model.Category, error) {
	categories, err := store.ListCategories(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	if categories == nil {
		categories = []model.Category{}
	}
	return categories, nil
}

func (s *Service) validate(ctx context.Context, fields model.ProductFields) error {
	if fields.CategoryID == nil {
		return nil
	}
	ok, err := store.CategoryExists(ctx, s.DB, *fields.CategoryID)
	if err != nil {
		return err
	}
	if !ok {
		return invalid(fmt.Sprintf("la categoría %d no existe", *fields.CategoryID))
	}
	return nil
}

func (s *Service) storeUpload(upload *ImageUpload) (string, error) {
	if upload.Content == nil {
		return "", invalid("no se subió ninguna imagen")
	}

	res, err := imaging.Process(upload.Content)
	if errors.Is(err, imaging.ErrNotImage) || errors.Is(err, imaging.ErrTooLarge) {
		return "", invalid(err.Error())
	}
	if err != nil {
		return "", err
	}

	// The stored name comes from the detected type, never the client's name.
	ref, err := s.Images.Save(imaging.FileName(res.Ext), res.Data)
	if err != nil {
		return "", err
	}
	s.Log.Debug("image stored", zap.String("ref", ref), zap.String("original", upload.Filename), zap.String("mime", res.MIME))
	return ref, nil
}

// removeImage deletes an image file. Failures leave an orphaned file behind
// and are only logged.
func (s *Service) removeImage(ref string) {
	if !s.Images.Exists(ref) {
		return
	}
	if err := s.Images.Delete(ref); err != nil {
		s.Log.Warn("failed to remove image", zap.String("ref", ref), zap.Error(err))
	}
}
