package handlers

import (
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/estate-service/internal/api/dto"
	"github.com/spec-kit/estate-service/internal/auth"
	"github.com/spec-kit/estate-service/internal/repository"
	"github.com/spec-kit/estate-service/internal/service"
	apperrors "github.com/spec-kit/estate-service/pkg/util/errorutil"
)

const maxImagesPerHouse = 5

// HousesHandler manages listing endpoints.
type HousesHandler struct {
	service *service.HouseService
}

// NewHousesHandler constructs handler.
func NewHousesHandler(houseService *service.HouseService) *HousesHandler {
	return &HousesHandler{service: houseService}
}

// Create POST /api/houses (multipart).
func (h *HousesHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthenticated("login required")
	}

	if c.FormValue("address") == "" {
		return apperrors.NewValidationError("address required", nil)
	}

	price, err := strconv.ParseFloat(c.FormValue("price"), 64)
	if err != nil {
		return apperrors.NewValidationError("price must be a number", nil)
	}
	area, err := strconv.ParseFloat(c.FormValue("area", "0"), 64)
	if err != nil {
		return apperrors.NewValidationError("area must be a number", nil)
	}

	uploads, err := collectImages(c)
	if err != nil {
		return err
	}

	input := service.HouseCreateInput{
		Address:      c.FormValue("address"),
		Price:        price,
		Rooms:        formInt(c, "rooms"),
		Floors:       formInt(c, "floors"),
		Bathrooms:    formInt(c, "bathrooms"),
		BathroomType: c.FormValue("bathroomType"),
		EstateType:   c.FormValue("estatetype"),
		Area:         area,
		About:        c.FormValue("about"),
		Features:     dto.ParseFeatures(c.FormValue("features")),
		Images:       uploads,
	}

	house, err := h.service.Create(c.UserContext(), principal.UserID, input)
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "house created successfully",
		"house":   dto.NewHouseResponse(house),
	})
}

// ListOwn GET /api/houses.
func (h *HousesHandler) ListOwn(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthenticated("login required")
	}

	houses, err := h.service.ListOwn(c.UserContext(), principal.UserID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "fetched houses successfully",
		"houses":  dto.NewHouseResponses(houses),
		"number":  len(houses),
	})
}

// Search GET /api/houses/search with filters and pagination.
func (h *HousesHandler) Search(c *fiber.Ctx) error {
	page := queryInt(c, "page", 1)
	if page < 1 {
		page = 1
	}
	limit := queryInt(c, "limit", 10)
	if limit < 1 {
		limit = 10
	}

	filter := repository.HouseFilter{
		MinPrice:     queryFloatPtr(c, "minPrice"),
		MaxPrice:     queryFloatPtr(c, "maxPrice"),
		Rooms:        queryIntPtr(c, "rooms"),
		Bathrooms:    queryIntPtr(c, "bathrooms"),
		Floors:       queryIntPtr(c, "floors"),
		EstateType:   queryStrPtr(c, "estatetype"),
		BathroomType: queryStrPtr(c, "bathroomType"),
		Limit:        limit,
		Offset:       (page - 1) * limit,
	}

	result, err := h.service.Search(c.UserContext(), filter)
	if err != nil {
		return err
	}

	totalPages := (result.Total + limit - 1) / limit
	return c.JSON(fiber.Map{
		"success":     true,
		"message":     "houses fetched successfully",
		"houses":      dto.NewHouseResponses(result.Houses),
		"currentPage": page,
		"totalHouses": result.Total,
		"totalPages":  totalPages,
	})
}

// Get GET /api/houses/:id.
func (h *HousesHandler) Get(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthenticated("login required")
	}

	house, err := h.service.Get(c.UserContext(), principal.UserID, c.Params("id"))
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "house found",
		"house":   dto.NewHouseResponse(house),
	})
}

// Update PUT /api/houses/:id (multipart, partial).
func (h *HousesHandler) Update(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthenticated("login required")
	}

	input, err := parseUpdateInput(c)
	if err != nil {
		return err
	}

	house, err := h.service.Update(c.UserContext(), principal.UserID, c.Params("id"), input)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "house updated successfully",
		"house":   dto.NewHouseResponse(house),
	})
}

// Delete DELETE /api/houses/:id.
func (h *HousesHandler) Delete(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthenticated("login required")
	}

	id := c.Params("id")
	if err := h.service.Delete(c.UserContext(), principal.UserID, id); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":   true,
		"message":   "house deleted successfully",
		"deletedId": id,
	})
}

func parseUpdateInput(c *fiber.Ctx) (service.HouseUpdateInput, error) {
	var input service.HouseUpdateInput

	if v := c.FormValue("address"); v != "" {
		input.Address = &v
	}
	if v := c.FormValue("price"); v != "" {
		price, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return input, apperrors.NewValidationError("price must be a number", nil)
		}
		input.Price = &price
	}
	if v := c.FormValue("area"); v != "" {
		area, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return input, apperrors.NewValidationError("area must be a number", nil)
		}
		input.Area = &area
	}
	for _, field := range []struct {
		name string
		dst  **int
	}{
		{"rooms", &input.Rooms},
		{"floors", &input.Floors},
		{"bathrooms", &input.Bathrooms},
	} {
		if v := c.FormValue(field.name); v != "" {
			parsed, err := strconv.Atoi(v)
			if err != nil {
				return input, apperrors.NewValidationError(field.name+" must be an integer", nil)
			}
			*field.dst = &parsed
		}
	}
	if v := c.FormValue("bathroomType"); v != "" {
		input.BathroomType = &v
	}
	if v := c.FormValue("estatetype"); v != "" {
		input.EstateType = &v
	}
	if v := c.FormValue("about"); v != "" {
		input.About = &v
	}
	if v := c.FormValue("features"); v != "" {
		input.Features = dto.ParseFeatures(v)
	}

	uploads, err := collectImages(c)
	if err != nil {
		return input, err
	}
	input.Images = uploads
	return input, nil
}

func collectImages(c *fiber.Ctx) ([]service.ImageUpload, error) {
	form, err := c.MultipartForm()
	if err != nil {
		// No multipart body means no images, which is valid.
		return nil, nil
	}

	files := form.File["images"]
	if len(files) > maxImagesPerHouse {
		return nil, apperrors.NewValidationError("too many images", map[string]any{"max": maxImagesPerHouse})
	}

	uploads := make([]service.ImageUpload, 0, len(files))
	for _, header := range files {
		data, err := readFile(header)
		if err != nil {
			return nil, apperrors.NewValidationError("unreadable image upload", nil)
		}
		uploads = append(uploads, service.ImageUpload{
			Data:        data,
			ContentType: header.Header.Get("Content-Type"),
		})
	}
	return uploads, nil
}

func readFile(header *multipart.FileHeader) ([]byte, error) {
	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(file)
}

func formInt(c *fiber.Ctx, name string) int {
	parsed, err := strconv.Atoi(c.FormValue(name, "0"))
	if err != nil {
		return 0
	}
	return parsed
}

func queryInt(c *fiber.Ctx, name string, fallback int) int {
	v := c.Query(name)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func queryIntPtr(c *fiber.Ctx, name string) *int {
	v := c.Query(name)
	if v == "" {
		return nil
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return nil
	}
	return &parsed
}

func queryFloatPtr(c *fiber.Ctx, name string) *float64 {
	v := c.Query(name)
	if v == "" {
		return nil
	}
	parsed, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil
	}
	return &parsed
}

func queryStrPtr(c *fiber.Ctx, name string) *string {
	v := c.Query(name)
	if v == "" {
		return nil
	}
	return &v
}
