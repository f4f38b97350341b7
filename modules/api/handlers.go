package api

import (
	"encoding/json"
	"log"
	"strconv"
	"strings"

	domain "github.com/example/room-presence-demo/domain/user"
	"github.com/example/room-presence-demo/modules/auth"
	"github.com/example/room-presence-demo/modules/catalog"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/gofiber/fiber/v2"
)

// healthHandler handles GET /health.
func (m *APIModule) healthHandler(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status: "healthy",
		Details: map[string]any{
			"module":            "api",
			"connected_clients": m.hub.ClientCount(),
		},
	})
}

// register handles POST /api/v1/auth/register.
func (m *APIModule) register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if req.Username == "" || req.Password == "" {
		return badRequest(c, "Username and password are required")
	}

	authReq := auth.RegisterRequest{
		Username: req.Username,
		Password: req.Password,
		Nickname: req.Nickname,
	}
	var resp auth.RegisterResponse

	if err := m.callAuth(c, auth.ServiceRegister, &authReq, &resp); err != nil {
		return m.handleAuthError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(UserResponse{
		ID:        resp.ID,
		Username:  resp.Username,
		Nickname:  resp.Nickname,
		CreatedAt: resp.CreatedAt,
	})
}

// login handles POST /api/v1/auth/login.
func (m *APIModule) login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if req.Username == "" || req.Password == "" {
		return badRequest(c, "Username and password are required")
	}

	authReq := auth.LoginRequest{
		Username: req.Username,
		Password: req.Password,
	}
	var resp auth.LoginResponse

	if err := m.callAuth(c, auth.ServiceLogin, &authReq, &resp); err != nil {
		return m.handleAuthError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(LoginResponse{
		User: UserResponse{
			ID:       resp.ID,
			Username: resp.Username,
			Nickname: resp.Nickname,
		},
		Tokens: TokenResponse{
			AccessToken:  resp.AccessToken,
			RefreshToken: resp.RefreshToken,
			ExpiresIn:    resp.ExpiresIn,
			TokenType:    resp.TokenType,
		},
	})
}

// refresh handles POST /api/v1/auth/refresh.
func (m *APIModule) refresh(c *fiber.Ctx) error {
	var req RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if req.RefreshToken == "" {
		return badRequest(c, "Refresh token is required")
	}

	authReq := auth.RefreshRequest{RefreshToken: req.RefreshToken}
	var resp auth.RefreshResponse

	if err := m.callAuth(c, auth.ServiceRefreshToken, &authReq, &resp); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
			Error:   "unauthorized",
			Message: "Invalid or expired refresh token",
		})
	}

	return c.Status(fiber.StatusOK).JSON(TokenResponse{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresIn:    resp.ExpiresIn,
		TokenType:    resp.TokenType,
	})
}

// profile handles GET /api/v1/profile.
func (m *APIModule) profile(c *fiber.Ctx) error {
	claims, ok := c.Locals(UserContextKey).(*domain.Claims)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
			Error:   "unauthorized",
			Message: "User not authenticated",
		})
	}

	user, err := m.authAdapter.GetUser(c.UserContext(), claims.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to retrieve user profile",
		})
	}

	return c.Status(fiber.StatusOK).JSON(ProfileResponse{
		ID:        user.ID,
		Username:  user.Username,
		Nickname:  user.Nickname,
		RoomID:    user.RoomID,
		CreatedAt: user.CreatedAt,
	})
}

// listRooms handles GET /api/v1/rooms.
func (m *APIModule) listRooms(c *fiber.Ctx) error {
	rooms, err := m.catalogAdapter.List(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "list_failed",
			Message: "Failed to list rooms",
		})
	}

	response := RoomListResponse{
		Rooms: make([]RoomResponse, 0, len(rooms)),
	}
	for _, rm := range rooms {
		response.Rooms = append(response.Rooms, RoomResponse{
			ID:          rm.ID,
			Name:        rm.Name,
			Description: rm.Description,
			Capacity:    rm.Capacity,
			Current:     m.hub.RoomClientCount(rm.ID),
			OwnerID:     rm.OwnerID,
			OwnerName:   rm.OwnerName,
			CreatedAt:   rm.CreatedAt,
		})
	}

	return c.JSON(response)
}

// createRoom handles POST /api/v1/rooms.
func (m *APIModule) createRoom(c *fiber.Ctx) error {
	claims, ok := c.Locals(UserContextKey).(*domain.Claims)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
			Error:   "unauthorized",
			Message: "User not authenticated",
		})
	}

	var req CreateRoomRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if req.Name == "" {
		return badRequest(c, "Room name is required")
	}

	rm, err := m.catalogAdapter.Create(c.UserContext(), catalog.CreateRoomRequest{
		Name:        req.Name,
		Description: req.Description,
		Capacity:    req.Capacity,
		OwnerID:     claims.UserID,
		OwnerName:   claims.Username,
	})
	if err != nil {
		// The sentinel does not survive the request-reply hop; match on text.
		if strings.Contains(err.Error(), "already exists") {
			return c.Status(fiber.StatusConflict).JSON(ErrorResponse{
				Error:   "conflict",
				Message: "A room with this name already exists",
			})
		}
		log.Printf("[api] Failed to create room: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "create_failed",
			Message: "Failed to create room",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(RoomResponse{
		ID:          rm.ID,
		Name:        rm.Name,
		Description: rm.Description,
		Capacity:    rm.Capacity,
		OwnerID:     rm.OwnerID,
		OwnerName:   rm.OwnerName,
		CreatedAt:   rm.CreatedAt,
	})
}

// getRoom handles GET /api/v1/rooms/:id.
func (m *APIModule) getRoom(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return badRequest(c, "Room id must be numeric")
	}

	rm, err := m.catalogAdapter.GetByID(c.UserContext(), id)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "lookup_failed",
			Message: "Failed to look up room",
		})
	}
	if rm == nil {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Error:   "not_found",
			Message: "Room not found",
		})
	}

	return c.JSON(RoomResponse{
		ID:          rm.ID,
		Name:        rm.Name,
		Description: rm.Description,
		Capacity:    rm.Capacity,
		Current:     m.hub.RoomClientCount(rm.ID),
		OwnerID:     rm.OwnerID,
		OwnerName:   rm.OwnerName,
		CreatedAt:   rm.CreatedAt,
	})
}

// callAuth sends a request-reply call to the auth module.
func (m *APIModule) callAuth(c *fiber.Ctx, service string, req, resp any) error {
	return helper.CallRequestReplyService[any, any](
		c.UserContext(),
		m.authContainer,
		service,
		json.Marshal,
		json.Unmarshal,
		req,
		&resp,
	)
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
		Error:   "bad_request",
		Message: message,
	})
}

// handleAuthError maps auth service errors to HTTP responses without
// exposing internals.
func (m *APIModule) handleAuthError(c *fiber.Ctx, err error) error {
	errStr := err.Error()

	switch {
	case strings.Contains(errStr, "invalid username or password"):
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
			Error:   "unauthorized",
			Message: "Invalid username or password",
		})
	case strings.Contains(errStr, "already exists"):
		return c.Status(fiber.StatusConflict).JSON(ErrorResponse{
			Error:   "conflict",
			Message: "User with this username already exists",
		})
	case strings.Contains(errStr, "username cannot be empty"),
		strings.Contains(errStr, "username exceeds"),
		strings.Contains(errStr, "password must be"):
		return badRequest(c, "Invalid username or password format")
	default:
		log.Printf("[api] Internal error: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "internal_error",
			Message: "An internal error occurred",
		})
	}
}
