package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-kit/kit/endpoint"

	"github.com/flarexio/userdash"
	"github.com/flarexio/userdash/user"
)

var (
	ErrNotRehydrated = errors.New("state not rehydrated")
	ErrInvalidUserID = errors.New("invalid user id")
)

// AddRoutes registers the user dashboard API on r.
func AddRoutes(r gin.IRouter, endpoints userdash.EndpointSet, purge endpoint.Endpoint) {
	// GET /state
	r.GET("/state", StateHandler(endpoints.State))

	// DELETE /snapshot
	r.DELETE("/snapshot", PurgeHandler(purge))

	users := r.Group("/users")
	{
		// GET /users?q=
		users.GET("", SearchHandler(endpoints.Search))

		// POST /users
		users.POST("", CreateRemoteHandler(endpoints.CreateRemote))

		// POST /users/local
		users.POST("/local", AddHandler(endpoints.Add))

		// POST /users/fetch
		users.POST("/fetch", FetchAllHandler(endpoints.FetchAll))

		// GET /users/:id
		users.GET("/:id", UserHandler(endpoints.User))

		// PUT /users/:id
		users.PUT("/:id", EditHandler(endpoints.Edit))

		// PATCH /users/:id
		users.PATCH("/:id", UpdateHandler(endpoints.Update))

		// DELETE /users/:id
		users.DELETE("/:id", RemoveHandler(endpoints.Remove))
	}
}

// Rehydrated holds requests back until the persisted state is restored.
func Rehydrated(ready <-chan struct{}) gin.HandlerFunc {
	return func(c *gin.Context) {
		select {
		case <-ready:
			c.Next()

		default:
			c.Abort()
			c.Error(ErrNotRehydrated)
			c.String(http.StatusServiceUnavailable, ErrNotRehydrated.Error())
		}
	}
}

func fail(c *gin.Context, err error) {
	code := http.StatusExpectationFailed
	switch {
	case errors.Is(err, user.ErrUserNotFound):
		code = http.StatusNotFound
	case errors.Is(err, user.ErrNameEmailRequired):
		code = http.StatusBadRequest
	case errors.Is(err, userdash.ErrStoreClosed):
		code = http.StatusServiceUnavailable
	}

	c.Abort()
	c.Error(err)
	c.String(code, err.Error())
}

func badRequest(c *gin.Context, err error) {
	c.Abort()
	c.Error(err)
	c.String(http.StatusBadRequest, err.Error())
}

func userID(c *gin.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return 0, ErrInvalidUserID
	}

	return id, nil
}

func StateHandler(endpoint endpoint.Endpoint) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp, err := endpoint(c, nil)
		if err != nil {
			fail(c, err)
			return
		}

		c.JSON(http.StatusOK, &resp)
	}
}

func SearchHandler(endpoint endpoint.Endpoint) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp, err := endpoint(c, c.Query("q"))
		if err != nil {
			fail(c, err)
			return
		}

		c.JSON(http.StatusOK, &resp)
	}
}

func FetchAllHandler(endpoint endpoint.Endpoint) gin.HandlerFunc {
	return func(c *gin.Context) {
		force, _ := strconv.ParseBool(c.Query("force"))

		req := userdash.FetchAllRequest{
			Force: force,
		}

		resp, err := endpoint(c, req)
		if err != nil {
			fail(c, err)
			return
		}

		c.JSON(http.StatusOK, &resp)
	}
}

func CreateRemoteHandler(endpoint endpoint.Endpoint) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req user.Draft
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}

		resp, err := endpoint(c, req)
		if err != nil {
			fail(c, err)
			return
		}

		c.JSON(http.StatusCreated, &resp)
	}
}

func AddHandler(endpoint endpoint.Endpoint) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req user.Draft
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}

		resp, err := endpoint(c, req)
		if err != nil {
			fail(c, err)
			return
		}

		c.JSON(http.StatusCreated, &resp)
	}
}

func UserHandler(endpoint endpoint.Endpoint) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := userID(c)
		if err != nil {
			badRequest(c, err)
			return
		}

		resp, err := endpoint(c, id)
		if err != nil {
			fail(c, err)
			return
		}

		c.JSON(http.StatusOK, &resp)
	}
}

func EditHandler(endpoint endpoint.Endpoint) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := userID(c)
		if err != nil {
			badRequest(c, err)
			return
		}

		var req user.User
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		req.ID = id

		resp, err := endpoint(c, req)
		if err != nil {
			fail(c, err)
			return
		}

		c.JSON(http.StatusOK, &resp)
	}
}

func UpdateHandler(endpoint endpoint.Endpoint) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := userID(c)
		if err != nil {
			badRequest(c, err)
			return
		}

		var req user.Patch
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		req.ID = id

		resp, err := endpoint(c, req)
		if err != nil {
			fail(c, err)
			return
		}

		c.JSON(http.StatusOK, &resp)
	}
}

func RemoveHandler(endpoint endpoint.Endpoint) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := userID(c)
		if err != nil {
			badRequest(c, err)
			return
		}

		if _, err := endpoint(c, id); err != nil {
			fail(c, err)
			return
		}

		c.Status(http.StatusNoContent)
	}
}

// PurgeHandler never reports a storage failure to the caller; the
// outcome is carried in the body instead.
func PurgeHandler(endpoint endpoint.Endpoint) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, err := endpoint(c, nil)
		if err != nil {
			c.Error(err)
		}

		c.JSON(http.StatusOK, gin.H{"purged": err == nil})
	}
}
