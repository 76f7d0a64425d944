// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/safepdf/pkg/controller"
	"github.com/walteh/safepdf/pkg/license"
	"github.com/walteh/safepdf/pkg/operation"
)

const (
	DefaultAddr       = "127.0.0.1:8765"
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// 🌐 Server exposes a controller over HTTP
type Server struct {
	ctrl *controller.Controller

	mu   sync.Mutex
	last *controller.Completion
}

// 🏭 New wraps ctrl and records its completions for GET /result
func New(ctrl *controller.Controller) *Server {
	s := &Server{ctrl: ctrl}
	ctrl.OnComplete(s.record)
	return s
}

func (s *Server) record(c controller.Completion) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = &c
}

// Router builds the gin engine serving the API.
func (s *Server) Router(logger zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(logger))
	s.RegisterRoutes(r)
	return r
}

// RegisterRoutes registers API routes on the provided gin engine
func (s *Server) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api/v1")
	{
		api.GET("/state", s.State)
		api.POST("/file", s.SelectFile)
		api.POST("/operation", s.SelectOperation)
		api.PATCH("/settings", s.PatchSettings)
		api.GET("/stages/:stage", s.CheckStage)
		api.POST("/stages/:stage", s.SetStage)
		api.POST("/output", s.PrepareOutput)
		api.POST("/execute", s.Execute)
		api.POST("/cancel", s.Cancel)
		api.POST("/reset", s.Reset)
		api.GET("/progress", s.Progress)
		api.GET("/result", s.Result)
		api.GET("/operations", s.Operations)
		api.GET("/info", s.Info)
		api.POST("/license", s.ActivateLicense)
		api.POST("/license/verify", s.CheckLicense)
		api.DELETE("/license", s.DeactivateLicense)
	}
}

// 🚀 Serve listens on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) Serve(ctx context.Context, addr string) error {
	logger := zerolog.Ctx(ctx)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(*logger),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("serving api")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return errors.Errorf("serving: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("http server shutdown warning")
	}
	s.ctrl.CancelOperation(shutdownCtx)
	return nil
}

type fileRequest struct {
	Path string `json:"path" binding:"required"`
}

type operationRequest struct {
	Operation operation.Name `json:"operation" binding:"required"`
}

type outputRequest struct {
	Custom     string `json:"custom"`
	UseDefault bool   `json:"use_default"`
}

type stageResponse struct {
	Stage   string `json:"stage"`
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

type settingResponse struct {
	Key         string   `json:"key"`
	Kind        string   `json:"kind"`
	Default     any      `json:"default,omitempty"`
	Allowed     []string `json:"allowed,omitempty"`
	Min         int      `json:"min,omitempty"`
	Max         int      `json:"max,omitempty"`
	Description string   `json:"description,omitempty"`
}

type operationResponse struct {
	Name        operation.Name    `json:"name"`
	Label       string            `json:"label"`
	Description string            `json:"description"`
	Output      string            `json:"output"`
	Available   bool              `json:"available"`
	Reason      string            `json:"reason,omitempty"`
	Settings    []settingResponse `json:"settings"`
}

// fail writes err as {"error": msg} with a status derived from its kind.
func fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	var rej *license.Rejection
	switch {
	case errors.Is(err, controller.ErrAlreadyRunning):
		status = http.StatusConflict
	case errors.Is(err, controller.ErrNotFound),
		errors.Is(err, controller.ErrWrongExtension),
		errors.Is(err, controller.ErrMissingSelection),
		errors.Is(err, controller.ErrUnknownStage),
		errors.Is(err, controller.ErrUnknownOperation),
		errors.Is(err, controller.ErrNoLicense),
		errors.As(err, &rej):
		status = http.StatusBadRequest
	case errors.Is(err, operation.ErrUnavailable):
		status = http.StatusNotImplemented
	}
	c.JSON(status, gin.H{"error": controller.Message(err)})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

func (s *Server) State(c *gin.Context) {
	c.JSON(http.StatusOK, s.ctrl.Snapshot())
}

func (s *Server) SelectFile(c *gin.Context) {
	var req fileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request: path is required")
		return
	}
	msg, err := s.ctrl.SelectFile(c.Request.Context(), req.Path)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": msg})
}

func (s *Server) SelectOperation(c *gin.Context) {
	var req operationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request: operation is required")
		return
	}
	if !s.ctrl.SelectOperation(c.Request.Context(), req.Operation) {
		badRequest(c, "Unknown operation: "+string(req.Operation))
		return
	}
	c.JSON(http.StatusOK, gin.H{"operation": req.Operation})
}

func (s *Server) PatchSettings(c *gin.Context) {
	var partial operation.Settings
	if err := c.ShouldBindJSON(&partial); err != nil {
		badRequest(c, "invalid request: settings must be a JSON object")
		return
	}
	s.ctrl.SetOperationSettings(partial)
	c.JSON(http.StatusOK, gin.H{"settings": s.ctrl.Settings()})
}

func (s *Server) stage(c *gin.Context) (controller.Stage, bool) {
	stage, ok := controller.ParseStage(c.Param("stage"))
	if !ok {
		badRequest(c, "Unknown workflow stage: "+c.Param("stage"))
	}
	return stage, ok
}

func (s *Server) CheckStage(c *gin.Context) {
	stage, ok := s.stage(c)
	if !ok {
		return
	}
	allowed, why := s.ctrl.CanProceedToStage(stage)
	c.JSON(http.StatusOK, stageResponse{Stage: stage.String(), Allowed: allowed, Reason: why})
}

func (s *Server) SetStage(c *gin.Context) {
	stage, ok := s.stage(c)
	if !ok {
		return
	}
	if err := s.ctrl.SetStage(stage); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stageResponse{Stage: stage.String(), Allowed: true})
}

func (s *Server) PrepareOutput(c *gin.Context) {
	var req outputRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	target, err := s.ctrl.PrepareOutputPaths(c.Request.Context(), req.Custom, req.UseDefault)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, target)
}

// Execute starts the selected operation. The body may name an explicit
// target; an empty body uses the default output location.
func (s *Server) Execute(c *gin.Context) {
	var target operation.Target
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&target); err != nil {
			badRequest(c, "invalid request")
			return
		}
	}
	task, msg, err := s.ctrl.ExecuteOperationAsync(c.Request.Context(), target)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"task_id": task.ID(), "operation": task.Operation(), "message": msg})
}

func (s *Server) Cancel(c *gin.Context) {
	stopped := s.ctrl.CancelOperation(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"stopped": stopped})
}

func (s *Server) Reset(c *gin.Context) {
	s.ctrl.ResetState(c.Request.Context())
	s.mu.Lock()
	s.last = nil
	s.mu.Unlock()
	c.JSON(http.StatusOK, s.ctrl.Snapshot())
}

func (s *Server) Progress(c *gin.Context) {
	snap := s.ctrl.Snapshot()
	c.JSON(http.StatusOK, gin.H{"progress": snap.Progress, "running": snap.OperationRunning, "task_id": snap.TaskID})
}

func (s *Server) Result(c *gin.Context) {
	s.mu.Lock()
	last := s.last
	s.mu.Unlock()
	if last == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no operation has completed yet"})
		return
	}
	c.JSON(http.StatusOK, last)
}

func (s *Server) Operations(c *gin.Context) {
	reg := s.ctrl.Registry()
	var out []operationResponse
	for _, name := range reg.Names() {
		spec, _ := reg.Lookup(name)
		available, why := reg.Available(name)
		resp := operationResponse{
			Name:        name,
			Label:       spec.Label,
			Description: spec.Description,
			Output:      spec.Output.String(),
			Available:   available,
			Reason:      why,
			Settings:    []settingResponse{},
		}
		for _, st := range spec.Settings {
			resp.Settings = append(resp.Settings, settingResponse{
				Key:         st.Key,
				Kind:        st.Kind.String(),
				Default:     st.Default,
				Allowed:     st.Allowed,
				Min:         st.Min,
				Max:         st.Max,
				Description: st.Description,
			})
		}
		out = append(out, resp)
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) Info(c *gin.Context) {
	info, err := s.ctrl.DocumentInfo(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

func (s *Server) ActivateLicense(c *gin.Context) {
	var req fileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request: path is required")
		return
	}
	msg, err := s.ctrl.ActivateLicense(c.Request.Context(), req.Path)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": msg, "pro": s.ctrl.ProEnabled()})
}

// CheckLicense verifies the license document in the request body without
// activating it.
func (s *Server) CheckLicense(c *gin.Context) {
	data, err := c.GetRawData()
	if err != nil || len(data) == 0 {
		badRequest(c, "invalid request: license document is required")
		return
	}
	msg, lic, err := s.ctrl.CheckLicense(c.Request.Context(), data)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": msg,
		"type":    lic.Type,
		"expires": lic.Expires.Format(license.DateLayout),
	})
}

func (s *Server) DeactivateLicense(c *gin.Context) {
	s.ctrl.DeactivateLicense(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"pro": false})
}
