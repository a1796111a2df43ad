package services

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/yeremiapane/restaurant-booking/feed"
	"github.com/yeremiapane/restaurant-booking/models"
	"github.com/yeremiapane/restaurant-booking/storage"
	"github.com/yeremiapane/restaurant-booking/utils"
	"gorm.io/gorm"
)

var maxPrice = decimal.RequireFromString("9999.99")

type MenuService struct {
	DB     *gorm.DB
	Images storage.ImageStore
	Feed   Publisher
}

func NewMenuService(db *gorm.DB, images storage.ImageStore, feed Publisher) *MenuService {
	return &MenuService{DB: db, Images: images, Feed: feed}
}

// ImageUpload is an uploaded file waiting to be stored.
type ImageUpload struct {
	Filename string
	Body     io.Reader
}

type MenuInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Category    models.MenuCategory
	IsAvailable bool
	// ImageURL replaces the image when set and no upload is given.
	ImageURL    string
	Upload      *ImageUpload
	RemoveImage bool
}

type MenuSection struct {
	Category models.MenuCategory `json:"category"`
	Label    string              `json:"label"`
	Anchor   string              `json:"anchor"`
	Items    []models.MenuItem   `json:"items"`
}

// Sections groups menu items by category in display order, skipping empty
// categories. onlyAvailable hides items marked unavailable.
func (s *MenuService) Sections(ctx context.Context, onlyAvailable bool) ([]MenuSection, error) {
	q := s.DB.WithContext(ctx).Order("name").Order("id")
	if onlyAvailable {
		q = q.Where("is_available = ?", true)
	}
	var items []models.MenuItem
	if err := q.Find(&items).Error; err != nil {
		return nil, err
	}

	byCategory := make(map[models.MenuCategory][]models.MenuItem)
	for _, it := range items {
		byCategory[it.Category] = append(byCategory[it.Category], it)
	}
	var sections []MenuSection
	for _, c := range models.MenuCategories {
		if len(byCategory[c]) == 0 {
			continue
		}
		sections = append(sections, MenuSection{Category: c, Label: c.Label(), Anchor: c.Anchor(), Items: byCategory[c]})
	}
	return sections, nil
}

// List is the admin menu listing, by category then name.
func (s *MenuService) List(ctx context.Context) ([]models.MenuItem, error) {
	var items []models.MenuItem
	err := s.DB.WithContext(ctx).Order("category").Order("name").Find(&items).Error
	return items, err
}

func (s *MenuService) Get(ctx context.Context, id uint) (*models.MenuItem, error) {
	var item models.MenuItem
	if err := s.DB.WithContext(ctx).First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

func (s *MenuService) Create(ctx context.Context, in MenuInput) (*models.MenuItem, error) {
	if fe := validateMenu(in); fe != nil {
		return nil, fe
	}
	item := models.MenuItem{}
	applyMenuInput(&item, in)
	if err := s.applyImage(ctx, &item, in); err != nil {
		return nil, err
	}
	if err := s.DB.WithContext(ctx).Create(&item).Error; err != nil {
		return nil, err
	}
	utils.InfoLogger.Printf("Menu item created: %s (%s)", item.Name, item.Category)
	s.publish(feed.EventMenuCreated, item)
	return &item, nil
}

func (s *MenuService) Update(ctx context.Context, id uint, in MenuInput) (*models.MenuItem, error) {
	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if fe := validateMenu(in); fe != nil {
		return nil, fe
	}
	applyMenuInput(item, in)
	if err := s.applyImage(ctx, item, in); err != nil {
		return nil, err
	}
	if err := s.DB.WithContext(ctx).Save(item).Error; err != nil {
		return nil, err
	}
	utils.InfoLogger.Printf("Menu item %d updated", item.ID)
	s.publish(feed.EventMenuUpdated, item)
	return item, nil
}

// ToggleAvailability flips the flag and returns the new value.
func (s *MenuService) ToggleAvailability(ctx context.Context, id uint) (*models.MenuItem, error) {
	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	item.IsAvailable = !item.IsAvailable
	if err := s.DB.WithContext(ctx).Model(item).Update("is_available", item.IsAvailable).Error; err != nil {
		return nil, err
	}
	s.publish(feed.EventMenuUpdated, item)
	return item, nil
}

func (s *MenuService) Delete(ctx context.Context, id uint) (*models.MenuItem, error) {
	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.DB.WithContext(ctx).Delete(item).Error; err != nil {
		return nil, err
	}
	s.dropImage(ctx, item.Image)
	utils.InfoLogger.Printf("Menu item %d deleted", item.ID)
	s.publish(feed.EventMenuDeleted, map[string]interface{}{"id": item.ID, "name": item.Name})
	return item, nil
}

// Duplicate stores a copy named "Copy of <name>" with its own copy of the image.
func (s *MenuService) Duplicate(ctx context.Context, id uint) (*models.MenuItem, error) {
	src, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	dup := models.MenuItem{
		Name:        "Copy of " + src.Name,
		Description: src.Description,
		Price:       src.Price,
		Category:    src.Category,
		IsAvailable: src.IsAvailable,
	}
	if src.Image != "" && s.Images != nil {
		img, err := s.Images.Copy(ctx, src.Image)
		if err != nil {
			utils.ErrorLogger.Printf("Could not copy image of menu item %d: %v", src.ID, err)
		} else {
			dup.Image = img
		}
	}
	if err := s.DB.WithContext(ctx).Create(&dup).Error; err != nil {
		return nil, err
	}
	utils.InfoLogger.Printf("Menu item %d duplicated as %d", src.ID, dup.ID)
	s.publish(feed.EventMenuCreated, dup)
	return &dup, nil
}

func (s *MenuService) applyImage(ctx context.Context, item *models.MenuItem, in MenuInput) error {
	old := item.Image
	switch {
	case in.Upload != nil:
		if s.Images == nil {
			return errors.New("image uploads are not configured")
		}
		url, err := s.Images.Save(ctx, in.Upload.Filename, in.Upload.Body)
		if err != nil {
			if errors.Is(err, storage.ErrUnsupportedImage) {
				fe := &FormError{}
				fe.Add("image", err.Error())
				return fe
			}
			return err
		}
		item.Image = url
	case in.RemoveImage:
		item.Image = ""
	case in.ImageURL != "":
		item.Image = in.ImageURL
	}
	if old != "" && old != item.Image {
		s.dropImage(ctx, old)
	}
	return nil
}

func (s *MenuService) dropImage(ctx context.Context, url string) {
	if url == "" || s.Images == nil {
		return
	}
	if err := s.Images.Delete(ctx, url); err != nil {
		utils.ErrorLogger.Printf("Could not delete image %s: %v", url, err)
	}
}

func (s *MenuService) publish(event string, data interface{}) {
	if s.Feed != nil {
		s.Feed.Publish(event, data)
	}
}

func applyMenuInput(item *models.MenuItem, in MenuInput) {
	item.Name = strings.TrimSpace(in.Name)
	item.Description = in.Description
	item.Price = in.Price.Round(2)
	item.Category = in.Category
	item.IsAvailable = in.IsAvailable
}

func validateMenu(in MenuInput) *FormError {
	fe := &FormError{}
	if strings.TrimSpace(in.Name) == "" {
		fe.Add("name", MsgRequired)
	} else if len(in.Name) > 100 {
		fe.Add("name", "Ensure this value has at most 100 characters.")
	}
	if !in.Price.IsPositive() {
		fe.Add("price", "Ensure this value is greater than 0.")
	} else if in.Price.GreaterThan(maxPrice) {
		fe.Add("price", "Ensure that there are no more than 6 digits in total.")
	}
	if !in.Category.Valid() {
		fe.Add("category", MsgInvalidChoice)
	}
	if fe.Empty() {
		return nil
	}
	return fe
}
