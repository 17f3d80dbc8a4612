// Package pipeline runs whole-file mesh conversions: read, decode, parse,
// synthesize normals, convert, serialize and write.
package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/meshconv/internal/config"
	"github.com/Faultbox/meshconv/internal/logger"
	"github.com/Faultbox/meshconv/pkg/encoding"
	"github.com/Faultbox/meshconv/pkg/formats"
)

// ErrUnknownFormat is returned for paths whose extension maps to no codec.
var ErrUnknownFormat = errors.New("unknown mesh format")

// Format identifies a file format by extension.
type Format int

// Supported formats.
const (
	FormatOBJ Format = iota
	FormatSTL
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatOBJ:
		return "OBJ"
	case FormatSTL:
		return "STL"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// DetectFormat maps a path's extension to a Format.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".obj":
		return FormatOBJ, nil
	case ".stl":
		return FormatSTL, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
}

// Result summarizes one conversion.
type Result struct {
	Src, Dst  string
	From, To  Format
	Objects   int
	Triangles int
	// Synthesized counts objects whose normals were computed.
	Synthesized int
	Elapsed     time.Duration
}

// Converter runs conversions with one configuration.
type Converter struct {
	cfg       *config.Config
	materials *MaterialCache
}

// New creates a converter. cfg must be valid.
func New(cfg *config.Config) (*Converter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	c := &Converter{cfg: cfg}
	if cfg.Materials.Resolve {
		cache, err := NewMaterialCache(cfg.Materials.CacheSize, cfg.Conversion.InputEncoding)
		if err != nil {
			return nil, err
		}
		c.materials = cache
	}
	return c, nil
}

// Materials returns the material cache, or nil when resolution is off.
func (c *Converter) Materials() *MaterialCache {
	return c.materials
}

// ConvertFile converts src to dst, choosing codecs by file extension.
// dst is written only after the whole output has been serialized.
func (c *Converter) ConvertFile(src, dst string) (*Result, error) {
	from, err := DetectFormat(src)
	if err != nil {
		return nil, err
	}
	to, err := DetectFormat(dst)
	if err != nil {
		return nil, err
	}
	return c.Convert(src, from, dst, to)
}

// Convert reads src as format from and writes dst as format to,
// regardless of file extensions.
func (c *Converter) Convert(src string, from Format, dst string, to Format) (*Result, error) {
	start := time.Now()
	res := &Result{Src: src, Dst: dst, From: from, To: to}

	var err error
	var obj *formats.OBJ
	var stl *formats.STL
	switch from {
	case FormatOBJ:
		if obj, err = c.ReadOBJ(src); err != nil {
			return nil, err
		}
	case FormatSTL:
		if stl, err = c.ReadSTL(src); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownFormat, from)
	}

	switch to {
	case FormatSTL:
		if obj != nil {
			if res.Synthesized, err = c.PrepareNormals(obj); err != nil {
				return nil, err
			}
			if stl, err = formats.STLFromOBJ(obj); err != nil {
				return nil, fmt.Errorf("converting %s: %w", src, err)
			}
		}
		res.Objects = len(stl.Names())
		res.Triangles = stl.TriangleCount()
		err = c.WriteSTL(stl, dst)

	case FormatOBJ:
		if obj == nil {
			obj = formats.OBJFromSTL(stl)
		}
		if c.cfg.Conversion.RecomputeNormals {
			if res.Synthesized, err = c.PrepareNormals(obj); err != nil {
				return nil, err
			}
		}
		res.Objects = len(obj.Names())
		res.Triangles = obj.FaceCount()
		err = c.WriteOBJ(obj, dst)

	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownFormat, to)
	}
	if err != nil {
		return nil, err
	}

	res.Elapsed = time.Since(start)
	logger.Debug("conversion finished",
		zap.String("src", src),
		zap.String("dst", dst),
		zap.Stringer("from", from),
		zap.Stringer("to", to),
		zap.Int("objects", res.Objects),
		zap.Int("triangles", res.Triangles),
		zap.Duration("elapsed", res.Elapsed),
	)
	return res, nil
}

// ReadOBJ reads, decodes and parses an OBJ file, then checks its material
// references when resolution is enabled.
func (c *Converter) ReadOBJ(path string) (*formats.OBJ, error) {
	data, err := c.readText(path)
	if err != nil {
		return nil, err
	}
	doc, err := formats.ParseOBJWithOptions(data, formats.OBJParseOptions{
		KeepEmpty: c.cfg.Conversion.KeepEmptyObjects,
	})
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	logger.Debug("parsed OBJ",
		zap.String("path", path),
		zap.Int("objects", len(doc.Names())),
		zap.Int("faces", doc.FaceCount()),
	)

	c.checkMaterials(path, doc)
	return doc, nil
}

// ReadSTL reads and parses an STL file. ASCII input is decoded from the
// configured charset; binary input is used as is.
func (c *Converter) ReadSTL(path string) (*formats.STL, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	ascii := formats.IsASCIISTL(data)
	if ascii {
		if data, err = encoding.ToUTF8(c.cfg.Conversion.InputEncoding, data); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", path, err)
		}
	}

	doc, err := formats.ParseSTL(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	logger.Debug("parsed STL",
		zap.String("path", path),
		zap.Bool("ascii", ascii),
		zap.Int("solids", len(doc.Names())),
		zap.Int("triangles", doc.TriangleCount()),
	)
	return doc, nil
}

// PrepareNormals synthesizes normals for objects that lack them, or for
// every object when recompute_normals is set. It returns the number of
// objects changed.
func (c *Converter) PrepareNormals(doc *formats.OBJ) (int, error) {
	mode, enabled := c.cfg.NormalMode()

	changed := 0
	for _, o := range doc.Objects() {
		if o.HasNormals() && !c.cfg.Conversion.RecomputeNormals {
			continue
		}
		if !enabled {
			// Leave the object alone; conversion reports the missing normal.
			continue
		}
		if err := o.CalcNormals(mode); err != nil {
			return changed, fmt.Errorf("computing normals for %q: %w", o.Name, err)
		}
		logger.Debug("synthesized normals",
			zap.String("object", o.Name),
			zap.Stringer("mode", mode),
			zap.Int("normals", o.Normals.Len()),
		)
		changed++
	}
	return changed, nil
}

// WriteOBJ serializes doc and writes it to path.
func (c *Converter) WriteOBJ(doc *formats.OBJ, path string) error {
	var buf bytes.Buffer
	if err := doc.Encode(&buf); err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return c.writeText(path, buf.Bytes())
}

// WriteSTL serializes doc in the configured encoding and writes it to path.
func (c *Converter) WriteSTL(doc *formats.STL, path string) error {
	var buf bytes.Buffer
	if c.cfg.Conversion.STLBinary {
		if err := doc.EncodeBinary(&buf); err != nil {
			return fmt.Errorf("encoding %s: %w", path, err)
		}
		return writeFile(path, buf.Bytes())
	}
	if err := doc.EncodeASCII(&buf); err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return c.writeText(path, buf.Bytes())
}

// JoinSTL merges the solids of every source into one document, in order,
// and writes it to dst.
func (c *Converter) JoinSTL(sources []string, dst string) (*formats.STL, error) {
	joined := formats.NewSTL()
	for _, src := range sources {
		doc, err := c.ReadSTL(src)
		if err != nil {
			return nil, err
		}
		joined.Join(doc)
	}
	if err := c.WriteSTL(joined, dst); err != nil {
		return nil, err
	}
	return joined, nil
}

func (c *Converter) checkMaterials(path string, doc *formats.OBJ) {
	if c.materials == nil {
		return
	}
	if doc.MaterialLib == "" {
		for _, o := range doc.Objects() {
			if o.Material != "" {
				logger.Debug("material used without mtllib",
					zap.String("object", o.Name),
					zap.String("material", o.Material),
				)
			}
		}
		return
	}

	libPath := filepath.Join(filepath.Dir(path), doc.MaterialLib)
	lib, err := c.materials.Get(libPath)
	if err != nil {
		logger.Warn("material library unavailable",
			zap.String("obj", path),
			zap.String("mtllib", doc.MaterialLib),
			zap.Error(err),
		)
		return
	}
	for _, o := range doc.Objects() {
		if o.Material == "" {
			continue
		}
		if _, ok := lib.Material(o.Material); !ok {
			logger.Warn("material not found in library",
				zap.String("object", o.Name),
				zap.String("material", o.Material),
				zap.String("mtllib", doc.MaterialLib),
			)
		}
	}
}

func (c *Converter) readText(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	data, err = encoding.ToUTF8(c.cfg.Conversion.InputEncoding, data)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return data, nil
}

func (c *Converter) writeText(path string, data []byte) error {
	data, err := encoding.FromUTF8(c.cfg.Conversion.OutputEncoding, data)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return writeFile(path, data)
}

func writeFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
