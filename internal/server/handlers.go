package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/loykin/j2g/internal/archive"
	"github.com/loykin/j2g/internal/common"
	"github.com/loykin/j2g/internal/constants"
	"github.com/loykin/j2g/internal/convert"
	"github.com/loykin/j2g/internal/store"
)

// Response headers
const (
	HeaderWarnings     = "X-J2G-Warnings"
	HeaderConversionID = "X-J2G-Conversion-ID"
	ContentTypeYAML    = "application/x-yaml"
)

var errBodyTooLarge = errors.New("request body too large")

func (s *Server) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) convert(c *gin.Context) {
	opts, err := s.options(c.Request.URL.Query())
	if err != nil {
		abortError(c, http.StatusBadRequest, err)
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxUploadBytes))
	if err != nil {
		s.abortRead(c, err)
		return
	}
	name := c.Query("name")
	if name == "" {
		name = "Jenkinsfile"
	}
	res, id, err := s.run(c, name, string(body), opts)
	if err != nil {
		abortConvert(c, err)
		return
	}
	setResultHeaders(c, res, id)
	c.Data(http.StatusOK, ContentTypeYAML, res.YAML)
}

func (s *Server) upload(c *gin.Context) {
	opts, err := s.options(c.Request.URL.Query())
	if err != nil {
		abortError(c, http.StatusBadRequest, err)
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxUploadBytes)
	form, err := c.MultipartForm()
	if err != nil {
		s.abortRead(c, err)
		return
	}

	if files := form.File["jenkinsfiles"]; len(files) > 0 {
		s.uploadMany(c, files, opts)
		return
	}
	single := form.File["jenkinsfile"]
	if len(single) == 0 {
		abortError(c, http.StatusBadRequest, errors.New("no files uploaded"))
		return
	}
	src, err := readPart(single[0])
	if err != nil {
		abortError(c, http.StatusBadRequest, err)
		return
	}
	res, id, err := s.run(c, single[0].Filename, src, opts)
	if err != nil {
		abortConvert(c, err)
		return
	}
	name := archive.SafeName(c.PostForm("yaml_filename"))
	setResultHeaders(c, res, id)
	c.Header("Content-Disposition", attachment(name))
	c.Data(http.StatusOK, ContentTypeYAML, res.YAML)
}

func (s *Server) uploadMany(c *gin.Context, files []*multipart.FileHeader, opts convert.Options) {
	out := make([]archive.File, 0, len(files))
	warnings := 0
	for _, fh := range files {
		if fh.Filename == "" {
			continue
		}
		src, err := readPart(fh)
		if err != nil {
			abortError(c, http.StatusBadRequest, err)
			return
		}
		res, _, err := s.run(c, fh.Filename, src, opts)
		if err != nil {
			abortConvert(c, fmt.Errorf("processing %s: %w", fh.Filename, err))
			return
		}
		warnings += len(res.Warnings)
		out = append(out, archive.File{Name: archive.OutputName(fh.Filename), Data: res.YAML})
	}
	if len(out) == 0 {
		abortError(c, http.StatusBadRequest, errors.New("no files uploaded"))
		return
	}
	data, err := archive.Zip(out, time.Now())
	if err != nil {
		abortError(c, http.StatusInternalServerError, err)
		return
	}
	c.Header(HeaderWarnings, strconv.Itoa(warnings))
	c.Header("Content-Disposition", attachment(constants.ZipArchiveName))
	c.Data(http.StatusOK, "application/zip", data)
}

func (s *Server) listConversions(c *gin.Context) {
	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			abortError(c, http.StatusBadRequest, fmt.Errorf("invalid limit %q", v))
			return
		}
		limit = n
	}
	list, err := s.history.List(c.Request.Context(), limit)
	if err != nil {
		abortError(c, http.StatusInternalServerError, err)
		return
	}
	if list == nil {
		list = []store.Conversion{}
	}
	c.JSON(http.StatusOK, gin.H{"conversions": list})
}

func (s *Server) getConversion(c *gin.Context) {
	conv, err := s.history.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		abortError(c, http.StatusNotFound, err)
		return
	}
	if err != nil {
		abortError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, conv)
}

// run converts src under the request timeout and records the result when
// history is enabled. Recording failures are logged, not returned.
func (s *Server) run(c *gin.Context, name, src string, opts convert.Options) (*convert.Result, string, error) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), s.cfg.RequestTimeout)
	defer cancel()
	logger := common.FromContext(ctx).WithFile(name)

	res, err := convert.Convert(ctx, src, opts)
	if err != nil {
		return nil, "", err
	}
	for _, w := range res.Warnings {
		logger.Warn("conversion warning", "code", w.Code, "stage", w.Stage, "message", w.Message)
	}
	if s.history == nil {
		return res, "", nil
	}
	rec, err := s.history.Record(ctx, store.Entry{
		SourceName: name,
		Source:     src,
		Profile:    opts.Profile,
		YAML:       res.YAML,
		Warnings:   res.Warnings,
	})
	if err != nil {
		logger.Error("failed to record conversion", "error", err)
		return res, "", nil
	}
	return res, rec.ID, nil
}

// options maps query parameters onto conversion options. Without parameters
// the server defaults apply; a query without a profile starts from the
// server's profile.
func (s *Server) options(q url.Values) (convert.Options, error) {
	base := s.cfg.Options
	if len(q) == 0 {
		return base, nil
	}
	m := make(map[string]interface{}, len(q))
	for k, v := range q {
		if k == "name" || len(v) == 0 {
			continue
		}
		m[k] = v[0]
	}
	if len(m) == 0 {
		return base, nil
	}
	if _, ok := m["profile"]; !ok {
		return base.Apply(m)
	}
	if _, ok := m["max_blocks"]; !ok {
		m["max_blocks"] = base.MaxBlocks
	}
	return convert.OptionsFromMap(m)
}

func (s *Server) abortRead(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		abortError(c, http.StatusRequestEntityTooLarge, errBodyTooLarge)
		return
	}
	abortError(c, http.StatusBadRequest, err)
}

func abortConvert(c *gin.Context, err error) {
	switch {
	case errors.Is(err, convert.ErrJobIDCollision):
		abortError(c, http.StatusUnprocessableEntity, err)
	case errors.Is(err, context.DeadlineExceeded):
		abortError(c, http.StatusGatewayTimeout, err)
	default:
		abortError(c, http.StatusInternalServerError, err)
	}
}

func setResultHeaders(c *gin.Context, res *convert.Result, id string) {
	c.Header(HeaderWarnings, strconv.Itoa(len(res.Warnings)))
	if id != "" {
		c.Header(HeaderConversionID, id)
	}
}

func readPart(fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open %s: %w", fh.Filename, err)
	}
	defer func() { _ = f.Close() }()
	b, err := io.ReadAll(f)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", fh.Filename, err)
	}
	return string(b), nil
}

func attachment(name string) string {
	return mime.FormatMediaType("attachment", map[string]string{"filename": name})
}
