package server

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/MeKo-Tech/snake/internal/pipeline"
	"github.com/MeKo-Tech/snake/internal/snake"
)

// segmentOptions are per-request overrides of the base pipeline config.
// Nil fields keep the server default.
type segmentOptions struct {
	Rounds          *int     `json:"rounds,omitempty"`
	InitPoints      *int     `json:"init_points,omitempty"`
	Radius          *float64 `json:"radius,omitempty"`
	InsertThreshold *float64 `json:"insert_threshold,omitempty"`
	MaxPoints       *int     `json:"max_points,omitempty"`
	Shrink          *bool    `json:"shrink,omitempty"`
	ToLow           *bool    `json:"to_low,omitempty"`
	Clamp           string   `json:"clamp,omitempty"`
	EdgeMethod      string   `json:"edge_method,omitempty"`
	Points          string   `json:"points,omitempty"`
}

// segmentOutcome carries what the metrics need from one segmentation.
type segmentOutcome struct {
	result  *pipeline.Result
	err     error
	elapsed time.Duration
}

// optionsFromForm reads overrides from multipart form values.
func optionsFromForm(r *http.Request) (segmentOptions, error) {
	var opts segmentOptions
	var err error
	if opts.Rounds, err = formInt(r, "rounds"); err != nil {
		return opts, err
	}
	if opts.InitPoints, err = formInt(r, "points"); err != nil {
		return opts, err
	}
	if opts.MaxPoints, err = formInt(r, "max_points"); err != nil {
		return opts, err
	}
	if opts.Radius, err = formFloat(r, "radius"); err != nil {
		return opts, err
	}
	if opts.InsertThreshold, err = formFloat(r, "insert_threshold"); err != nil {
		return opts, err
	}
	if opts.Shrink, err = formBool(r, "shrink"); err != nil {
		return opts, err
	}
	if opts.ToLow, err = formBool(r, "to_low"); err != nil {
		return opts, err
	}
	opts.Clamp = r.FormValue("clamp")
	opts.EdgeMethod = r.FormValue("edge_method")
	opts.Points = r.FormValue("contour")
	return opts, nil
}

// apply returns base with the overrides applied.
func (o segmentOptions) apply(base pipeline.Config) (pipeline.Config, error) {
	cfg := base
	if o.Rounds != nil {
		cfg.Contour.Rounds = *o.Rounds
	}
	if o.InitPoints != nil {
		cfg.Contour.InitPoints = *o.InitPoints
	}
	if o.Radius != nil {
		cfg.Contour.InitRadius = *o.Radius
	}
	if o.InsertThreshold != nil {
		cfg.Contour.InsertThreshold = *o.InsertThreshold
	}
	if o.MaxPoints != nil {
		cfg.Contour.MaxPoints = *o.MaxPoints
	}
	if o.Shrink != nil {
		cfg.Contour.Shrink = *o.Shrink
	}
	if o.ToLow != nil {
		cfg.Contour.ToLow = *o.ToLow
	}
	if o.Clamp != "" {
		cfg.Contour.Clamp = o.Clamp
	}
	if o.EdgeMethod != "" {
		cfg.Edges.Method = o.EdgeMethod
	}
	if o.Points != "" {
		pts, err := snake.ParsePositions(o.Points)
		if err != nil {
			return cfg, err
		}
		cfg.Contour.Points = pts
	}
	return cfg, nil
}

// Request ceilings applied when the server config leaves them unset.
const (
	DefaultMaxPoints = 4096
	DefaultMaxRounds = 1000
)

// limit rejects configs whose work exceeds the server ceilings. An uncapped
// insertion budget is capped at the point ceiling.
func (s *Server) limit(cfg *pipeline.Config) error {
	c := &cfg.Contour
	if c.Rounds > s.maxRounds {
		return fmt.Errorf("%w: rounds %d exceeds server limit %d", snake.ErrInvalidInput, c.Rounds, s.maxRounds)
	}
	if c.InitPoints > s.maxPoints {
		return fmt.Errorf("%w: points %d exceeds server limit %d", snake.ErrInvalidInput, c.InitPoints, s.maxPoints)
	}
	if len(c.Points) > s.maxPoints {
		return fmt.Errorf("%w: contour of %d points exceeds server limit %d", snake.ErrInvalidInput, len(c.Points), s.maxPoints)
	}
	if c.MaxPoints > s.maxPoints {
		return fmt.Errorf("%w: max_points %d exceeds server limit %d", snake.ErrInvalidInput, c.MaxPoints, s.maxPoints)
	}
	if c.MaxPoints == 0 {
		c.MaxPoints = s.maxPoints
	}
	return nil
}

func formInt(r *http.Request, key string) (*int, error) {
	v := r.FormValue(key)
	if v == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be an integer", snake.ErrInvalidInput, key)
	}
	return &n, nil
}

func formFloat(r *http.Request, key string) (*float64, error) {
	v := r.FormValue(key)
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be a number", snake.ErrInvalidInput, key)
	}
	return &f, nil
}

func formBool(r *http.Request, key string) (*bool, error) {
	v := r.FormValue(key)
	if v == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be a boolean", snake.ErrInvalidInput, key)
	}
	return &b, nil
}
