package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"quorum/internal/profile"
	"quorum/internal/score"
	"quorum/internal/signal"
	"quorum/internal/store"

	"github.com/gin-gonic/gin"
)

// Router exposes the scoring operations to the request layer.
type Router struct {
	Service  *score.Service
	Profiles *profile.Loader
	History  *store.History
}

func NewRouter(svc *score.Service, profiles *profile.Loader, history *store.History) *Router {
	return &Router{Service: svc, Profiles: profiles, History: history}
}

// Register mounts the API under the given group.
func (r *Router) Register(group *gin.RouterGroup) {
	group.GET("/score/:subject", r.handleScore)
	group.POST("/rank", r.handleRank)
	group.POST("/cross-validate", r.handleCrossValidate)
	group.POST("/scan", r.handleScan)
	group.GET("/profiles", r.handleProfiles)
	group.GET("/history/:subject", r.handleHistory)
}

func (r *Router) handleScore(c *gin.Context) {
	subject := c.Param("subject")
	profileName := c.Query("profile")
	withVerdict := truthy(c.Query("verdict"))
	directional := truthy(c.Query("directional"))

	if withVerdict {
		result, v, err := r.Service.ScoreWithVerdict(c.Request.Context(), subject, profileName, directional)
		if err != nil {
			abortWith(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"result": result, "verdict": v})
		return
	}
	result, err := r.Service.Score(c.Request.Context(), subject, profileName)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": result})
}

type rankRequest struct {
	Subjects []string `json:"subjects" binding:"required"`
	Profile  string   `json:"profile"`
	MinScore float64  `json:"min_score"`
	Limit    int      `json:"limit"`
}

func (r *Router) handleRank(c *gin.Context) {
	var req rankRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ranked, summary, err := r.Service.Rank(c.Request.Context(), req.Subjects, req.Profile, req.MinScore, req.Limit)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ranked": ranked, "summary": summary})
}

type crossValidateRequest struct {
	Subject string                 `json:"subject" binding:"required"`
	Outputs []signal.ScannerOutput `json:"outputs" binding:"required"`
}

func (r *Router) handleCrossValidate(c *gin.Context) {
	var req crossValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cv, err := r.Service.CrossValidate(req.Subject, req.Outputs)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, cv)
}

type scanRequest struct {
	Subjects []string `json:"subjects" binding:"required"`
	Profile  string   `json:"profile"`
}

func (r *Router) handleScan(c *gin.Context) {
	var req scanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	summary, ranked, err := r.Service.Scan(c.Request.Context(), req.Subjects, req.Profile)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": summary, "ranked": ranked})
}

func (r *Router) handleProfiles(c *gin.Context) {
	snap := r.Profiles.Snapshot()
	names := make([]string, 0, len(snap.Profiles))
	for name := range snap.Profiles {
		names = append(names, name)
	}
	c.JSON(http.StatusOK, gin.H{
		"version":   snap.Version,
		"loaded_at": snap.LoadedAt,
		"default":   snap.Default,
		"profiles":  names,
	})
}

func (r *Router) handleHistory(c *gin.Context) {
	if r.History == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "result store disabled"})
		return
	}
	subject := strings.ToUpper(strings.TrimSpace(c.Param("subject")))
	limit, _ := strconv.Atoi(c.Query("limit"))
	entries, err := r.History.RecentBySubject(c.Request.Context(), subject, limit)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"subject": subject, "entries": entries})
}

func abortWith(c *gin.Context, err error) {
	switch {
	case errors.Is(err, signal.ErrInvalidSubject):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case strings.Contains(err.Error(), "unknown profile"):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func truthy(v string) bool {
	if v == "" {
		return false
	}
	b, err := strconv.ParseBool(v)
	return err == nil && b
}
