package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/shashiranjanraj/bazaar/app/models"
	"github.com/shashiranjanraj/bazaar/pkg/auth"
	"github.com/shashiranjanraj/bazaar/pkg/event"
	"github.com/shashiranjanraj/bazaar/pkg/logger"
	"github.com/shashiranjanraj/bazaar/pkg/metrics"
	"github.com/shashiranjanraj/bazaar/pkg/storage"
	"github.com/shashiranjanraj/bazaar/pkg/validate"
)

// ListingInput is the editable part of a listing.
type ListingInput struct {
	Title       string  `json:"title"       validate:"required,min=5,max=120"`
	Description string  `json:"description" validate:"required,min=20,max=5000"`
	Price       float64 `json:"price"       validate:"required,gte=0.01"`
	Category    string  `json:"category"    validate:"required,in=Electronics,Vehicles,Furniture,Appliances,Real Estate"`
	Type        string  `json:"type"        validate:"required,in=sale,rent"`
	Condition   string  `json:"condition"   validate:"required,in=new,used"`
}

// Photo is an uploaded listing image.
type Photo struct {
	Filename string
	Size     int64
	Content  io.Reader
}

// ListingDetail is a listing with its reviews.
type ListingDetail struct {
	models.Product
	Reviews       []models.Review `json:"reviews"`
	ReviewCount   int             `json:"review_count"`
	AverageRating float64         `json:"average_rating"`
}

var allowedImageExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true,
}

var allowedImageTypes = map[string]bool{
	"image/jpeg": true, "image/png": true, "image/gif": true, "image/webp": true,
}

type ListingService struct {
	products  ProductStore
	reviews   ReviewStore
	disk      func() storage.Disk
	maxUpload int64
	now       func() time.Time
}

// NewListingService wires the stores and the image disk. disk is resolved on
// every call so the default disk can be swapped at boot.
func NewListingService(products ProductStore, reviews ReviewStore, disk func() storage.Disk, maxUpload int64) *ListingService {
	return &ListingService{
		products:  products,
		reviews:   reviews,
		disk:      disk,
		maxUpload: maxUpload,
		now:       time.Now,
	}
}

// Create validates in and photo, uploads the image and stores the listing.
// The image is not removed if the record write fails.
func (s *ListingService) Create(ctx context.Context, id *auth.Identity, in ListingInput, photo *Photo) (*models.Product, error) {
	if id == nil {
		return nil, fail(ErrUnauthorized, "Unauthorized")
	}
	in = trimListing(in)
	errs := ValidationError{}
	for k, v := range validate.Struct(&in) {
		errs[k] = v
	}
	contentType, body, perr := s.checkPhoto(photo)
	if perr != "" {
		errs["photo"] = perr
	}
	if len(errs) > 0 {
		return nil, errs
	}

	disk := s.disk()
	if disk == nil {
		return nil, fail(ErrUnavailable, "Image storage is not configured")
	}
	key := fmt.Sprintf("listings/%s/%d_%s", id.UserID, s.now().UnixMilli(), sanitiseFilename(photo.Filename))
	if err := disk.Put(ctx, key, body, photo.Size, contentType); err != nil {
		return nil, fmt.Errorf("listing: upload image: %w", err)
	}
	metrics.UploadBytes.WithLabelValues(disk.Name()).Observe(float64(photo.Size))

	p := &models.Product{
		Title:       in.Title,
		Description: in.Description,
		Price:       in.Price,
		Category:    in.Category,
		Type:        in.Type,
		Condition:   in.Condition,
		ImageURL:    disk.URL(key),
		ImagePath:   key,
		Seller: models.Seller{
			ID:     id.UserID,
			Name:   id.DisplayName(),
			Avatar: id.AvatarURL(),
		},
	}
	if err := s.products.Create(ctx, p); err != nil {
		logger.WithCtx(ctx).Error("listing: record write failed after upload", "image_path", key, "error", err)
		return nil, err
	}

	logger.WithCtx(ctx).Info("listing created", "listing_id", p.ID)
	event.Fire(ctx, event.ListingChanged, event.ListingPayload{ListingID: p.ID, SellerID: id.UserID, Action: "created"})
	return p, nil
}

// checkPhoto returns the sniffed content type and a reader replaying the
// whole file, or a validation message.
func (s *ListingService) checkPhoto(photo *Photo) (string, io.Reader, string) {
	if photo == nil || photo.Content == nil {
		return "", nil, "The photo field is required."
	}
	if !allowedImageExts[strings.ToLower(filepath.Ext(photo.Filename))] {
		return "", nil, "The photo must be a file of type: jpg, jpeg, png, gif, webp."
	}
	if s.maxUpload > 0 && photo.Size > s.maxUpload {
		return "", nil, fmt.Sprintf("The photo may not be greater than %d kilobytes.", s.maxUpload/1024)
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(photo.Content, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", nil, "The photo could not be read."
	}
	head = head[:n]
	contentType := http.DetectContentType(head)
	if !allowedImageTypes[contentType] {
		return "", nil, "The photo must be an image."
	}
	return contentType, io.MultiReader(bytes.NewReader(head), photo.Content), ""
}

var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func sanitiseFilename(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	base = unsafeFilename.ReplaceAllString(base, "_")
	base = strings.Trim(base, "._")
	if base == "" {
		return "photo"
	}
	if len(base) > 100 {
		ext := filepath.Ext(base)
		base = base[:100-len(ext)] + ext
	}
	return base
}

func trimListing(in ListingInput) ListingInput {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Category = strings.TrimSpace(in.Category)
	in.Type = strings.ToLower(strings.TrimSpace(in.Type))
	in.Condition = strings.ToLower(strings.TrimSpace(in.Condition))
	return in
}

// Get returns a listing with its reviews, newest first.
func (s *ListingService) Get(ctx context.Context, id string) (*ListingDetail, error) {
	p, err := s.products.Find(ctx, id)
	if err != nil {
		return nil, notFound(err, "Listing")
	}
	reviews, err := s.reviews.ForProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if reviews == nil {
		reviews = []models.Review{}
	}
	return &ListingDetail{
		Product:       *p,
		Reviews:       reviews,
		ReviewCount:   len(reviews),
		AverageRating: averageRating(reviews),
	}, nil
}

// averageRating is the mean rating rounded to one decimal, 0 with no reviews.
func averageRating(reviews []models.Review) float64 {
	if len(reviews) == 0 {
		return 0
	}
	sum := 0
	for _, r := range reviews {
		sum += r.Rating
	}
	return math.Round(float64(sum)/float64(len(reviews))*10) / 10
}

// Update changes a listing's editable fields. Only the seller may do this.
func (s *ListingService) Update(ctx context.Context, id *auth.Identity, listingID string, in ListingInput) (*models.Product, error) {
	p, err := s.owned(ctx, id, listingID)
	if err != nil {
		return nil, err
	}
	in = trimListing(in)
	if errs := validate.Struct(&in); validate.HasErrors(errs) {
		return nil, ValidationError(errs)
	}

	p.Title = in.Title
	p.Description = in.Description
	p.Price = in.Price
	p.Category = in.Category
	p.Type = in.Type
	p.Condition = in.Condition
	if err := s.products.UpdateDetails(ctx, p); err != nil {
		return nil, notFound(err, "Listing")
	}

	event.Fire(ctx, event.ListingChanged, event.ListingPayload{ListingID: p.ID, SellerID: p.Seller.ID, Action: "updated"})
	return p, nil
}

// Delete removes a listing with its reviews and requests, then its image.
// A failed image delete is logged only.
func (s *ListingService) Delete(ctx context.Context, id *auth.Identity, listingID string) error {
	p, err := s.owned(ctx, id, listingID)
	if err != nil {
		return err
	}
	if err := s.products.Delete(ctx, p.ID); err != nil {
		return notFound(err, "Listing")
	}

	if p.ImagePath != "" {
		if disk := s.disk(); disk != nil {
			if err := disk.Delete(ctx, p.ImagePath); err != nil {
				logger.WithCtx(ctx).Warn("listing: image delete failed", "listing_id", p.ID, "image_path", p.ImagePath, "error", err)
			}
		}
	}

	logger.WithCtx(ctx).Info("listing deleted", "listing_id", p.ID)
	event.Fire(ctx, event.ListingChanged, event.ListingPayload{ListingID: p.ID, SellerID: p.Seller.ID, Action: "deleted"})
	return nil
}

// Mine returns the caller's listings, newest first.
func (s *ListingService) Mine(ctx context.Context, id *auth.Identity) ([]models.Product, error) {
	if id == nil {
		return nil, fail(ErrUnauthorized, "Unauthorized")
	}
	out, err := s.products.BySeller(ctx, id.UserID)
	if out == nil && err == nil {
		out = []models.Product{}
	}
	return out, err
}

func (s *ListingService) owned(ctx context.Context, id *auth.Identity, listingID string) (*models.Product, error) {
	if id == nil {
		return nil, fail(ErrUnauthorized, "Unauthorized")
	}
	p, err := s.products.Find(ctx, listingID)
	if err != nil {
		return nil, notFound(err, "Listing")
	}
	if !p.OwnedBy(id.UserID) {
		return nil, fail(ErrForbidden, "Only the seller can change this listing.")
	}
	return p, nil
}
