package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dyne/scramble/internal/dispatch"
	"github.com/dyne/scramble/internal/transform"
	"github.com/gin-gonic/gin"
)

// ParamFields are the optional knobs shared by every scramble request.
// Missing fields fall back to the dispatcher defaults.
type ParamFields struct {
	Shift   *int    `json:"shift" form:"shift"`
	Seed    *int64  `json:"seed" form:"seed"`
	Keyword *string `json:"keyword" form:"keyword"`
	Strict  *bool   `json:"strict" form:"strict"`
}

func (f ParamFields) resolve(defaults transform.Params) transform.Params {
	p := defaults
	if f.Shift != nil {
		p.Shift = *f.Shift
	}
	if f.Seed != nil {
		p.Seed = *f.Seed
	}
	if f.Keyword != nil {
		p.Keyword = *f.Keyword
	}
	if f.Strict != nil {
		p.Strict = *f.Strict
	}
	return p
}

type textRequest struct {
	Text  *string `json:"text" binding:"required"`
	Model string  `json:"model" binding:"required"`
	ParamFields
}

type batchRequest struct {
	Texts []string `json:"texts" binding:"required"`
	Model string   `json:"model" binding:"required"`
	ParamFields
}

type uploadQuery struct {
	Model string `form:"model" binding:"required"`
	ParamFields
}

type cipherRequest struct {
	Text  *string `json:"text" binding:"required"`
	Shift *int    `json:"shift"`
}

type pairResponse struct {
	Original  string `json:"original"`
	Scrambled string `json:"scrambled"`
}

func (s *Server) handleScramble(c *gin.Context) {
	var req textRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	res, err := s.d.Apply(c.Request.Context(), dispatch.Request{
		Text:   *req.Text,
		Model:  req.Model,
		Params: req.resolve(s.d.Defaults()),
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"model": res.Model, "original": res.Original, "scrambled": res.Transformed})
}

func (s *Server) handleUnscramble(c *gin.Context) {
	var req textRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	res, err := s.d.Reverse(c.Request.Context(), dispatch.Request{
		Text:   *req.Text,
		Model:  req.Model,
		Params: req.resolve(s.d.Defaults()),
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"model": res.Model, "original": res.Original, "unscrambled": res.Transformed})
}

func (s *Server) handleBatch(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	pairs, err := s.d.Batch(c.Request.Context(), dispatch.BatchRequest{
		Texts:  req.Texts,
		Model:  req.Model,
		Params: req.resolve(s.d.Defaults()),
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	results := make([]pairResponse, len(pairs))
	for i, p := range pairs {
		results[i] = pairResponse{Original: p.Original, Scrambled: p.Transformed}
	}
	c.JSON(http.StatusOK, gin.H{"model": req.Model, "results": results})
}

func (s *Server) handleUpload(c *gin.Context) {
	var q uploadQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxUploadBytes)
	fh, err := c.FormFile("file")
	if err != nil {
		if tooLarge(err) {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{
				"error": fmt.Sprintf("Upload exceeds %d bytes", s.cfg.MaxUploadBytes),
			})
			return
		}
		badRequest(c, err)
		return
	}
	f, err := fh.Open()
	if err != nil {
		badRequest(c, err)
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		badRequest(c, err)
		return
	}
	res, err := s.d.File(c.Request.Context(), fh.Filename, data, q.Model, q.resolve(s.d.Defaults()))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"filename": res.Filename, "model": res.Model, "scrambled": res.Transformed})
}

func (s *Server) handleEncrypt(c *gin.Context) {
	text, shift, ok := s.bindCipher(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"original": text, "encrypted": dispatch.Encrypt(text, shift)})
}

func (s *Server) handleDecrypt(c *gin.Context) {
	text, shift, ok := s.bindCipher(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"original": text, "decrypted": dispatch.Decrypt(text, shift)})
}

func (s *Server) bindCipher(c *gin.Context) (string, int, bool) {
	var req cipherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return "", 0, false
	}
	shift := s.d.Defaults().Shift
	if req.Shift != nil {
		shift = *req.Shift
	}
	return *req.Text, shift, true
}

func (s *Server) handleModels(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"models": transform.Models()})
}

func badRequest(c *gin.Context, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func (s *Server) fail(c *gin.Context, err error) {
	_ = c.Error(err)
	var te *dispatch.TransformError
	switch {
	case errors.Is(err, context.Canceled):
		c.AbortWithStatusJSON(http.StatusRequestTimeout, gin.H{"error": "request canceled"})
	case errors.Is(err, context.DeadlineExceeded):
		c.AbortWithStatusJSON(http.StatusGatewayTimeout, gin.H{"error": "request timeout"})
	case errors.Is(err, dispatch.ErrUnsupportedFile):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Only .txt files are supported"})
	case errors.Is(err, dispatch.ErrNotUTF8):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "File must be UTF-8 encoded text."})
	case errors.As(err, &te):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Scrambling failed: " + te.Err.Error()})
	case errors.Is(err, dispatch.ErrUnsupportedModel):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		s.logger.Warnf("unexpected error: %v", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func tooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}
