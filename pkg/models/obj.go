package models

import (
	"bufio"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/umbra3d/umbra/pkg/math3d"
)

// OBJLoader loads Wavefront .obj files into Mesh format. Faces with more
// than three corners are fan-triangulated; negative indices are resolved
// relative to the current attribute counts per the OBJ spec.
type OBJLoader struct {
	// CalculateNormals computes smooth normals when the file carries
	// no vn records.
	CalculateNormals bool
}

// NewOBJLoader creates a new OBJ loader with default options.
func NewOBJLoader() *OBJLoader {
	return &OBJLoader{CalculateNormals: true}
}

// LoadOBJ loads a Wavefront .obj file.
func LoadOBJ(path string) (*Mesh, error) {
	loader := NewOBJLoader()
	return loader.Load(path)
}

// objIndex identifies one position/uv/normal triple from a face record.
type objIndex struct {
	pos, uv, norm int // 0 means absent
}

// Load parses an OBJ file and returns a Mesh.
func (l *OBJLoader) Load(path string) (*Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open obj: %w", err)
	}
	defer f.Close()

	mesh := NewMesh(filepath.Base(path))

	var (
		positions []math3d.Vec3
		uvs       []math3d.Vec2
		normals   []math3d.Vec3
	)
	// Deduplicate vertices by their full attribute triple.
	seen := make(map[objIndex]int)
	hasNormals := false

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}

		switch fields[0] {
		case "v":
			v, err := parseFloats3(fields[1:])
			if err != nil {
				return nil, fmt.Errorf("line %d: vertex: %w", line, err)
			}
			positions = append(positions, v)

		case "vt":
			if len(fields) < 3 {
				return nil, fmt.Errorf("line %d: texcoord needs 2 components", line)
			}
			u, err1 := strconv.ParseFloat(fields[1], 64)
			v, err2 := strconv.ParseFloat(fields[2], 64)
			if err1 != nil || err2 != nil {
				return nil, fmt.Errorf("line %d: bad texcoord", line)
			}
			uvs = append(uvs, math3d.V2(u, v))

		case "vn":
			v, err := parseFloats3(fields[1:])
			if err != nil {
				return nil, fmt.Errorf("line %d: normal: %w", line, err)
			}
			normals = append(normals, v)

		case "f":
			if len(fields) < 4 {
				return nil, fmt.Errorf("line %d: face needs at least 3 corners", line)
			}
			corners := make([]int, 0, len(fields)-1)
			for _, spec := range fields[1:] {
				idx, err := parseFaceCorner(spec, len(positions), len(uvs), len(normals))
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", line, err)
				}
				vi, ok := seen[idx]
				if !ok {
					mv := MeshVertex{Position: positions[idx.pos-1]}
					if idx.uv > 0 {
						mv.UV = uvs[idx.uv-1]
					}
					if idx.norm > 0 {
						mv.Normal = normals[idx.norm-1]
						hasNormals = true
					}
					vi = len(mesh.Vertices)
					mesh.Vertices = append(mesh.Vertices, mv)
					seen[idx] = vi
				}
				corners = append(corners, vi)
			}
			for i := 1; i < len(corners)-1; i++ {
				mesh.Faces = append(mesh.Faces, Face{
					V:        [3]int{corners[0], corners[i], corners[i+1]},
					Material: -1,
				})
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read obj: %w", err)
	}
	if len(mesh.Faces) == 0 {
		return nil, fmt.Errorf("obj %q has no faces", path)
	}

	if l.CalculateNormals && !hasNormals {
		mesh.CalculateSmoothNormals()
	}
	mesh.CalculateBounds()

	return mesh, nil
}

// parseFaceCorner parses one "v", "v/vt", "v//vn" or "v/vt/vn" corner
// spec. OBJ indices are 1-based; negative values count back from the
// end of the attribute list.
func parseFaceCorner(spec string, nPos, nUV, nNorm int) (objIndex, error) {
	parts := strings.Split(spec, "/")
	var idx objIndex

	resolve := func(s string, n int) (int, error) {
		if s == "" {
			return 0, nil
		}
		i, err := strconv.Atoi(s)
		if err != nil {
			return 0, fmt.Errorf("bad index %q", s)
		}
		if i < 0 {
			i = n + i + 1
		}
		if i < 1 || i > n {
			return 0, fmt.Errorf("index %q out of range", s)
		}
		return i, nil
	}

	var err error
	if idx.pos, err = resolve(parts[0], nPos); err != nil {
		return idx, err
	}
	if idx.pos == 0 {
		return idx, fmt.Errorf("corner %q missing position index", spec)
	}
	if len(parts) > 1 {
		if idx.uv, err = resolve(parts[1], nUV); err != nil {
			return idx, err
		}
	}
	if len(parts) > 2 {
		if idx.norm, err = resolve(parts[2], nNorm); err != nil {
			return idx, err
		}
	}
	return idx, nil
}

func parseFloats3(fields []string) (math3d.Vec3, error) {
	if len(fields) < 3 {
		return math3d.Vec3{}, fmt.Errorf("need 3 components, got %d", len(fields))
	}
	var v [3]float64
	for i := range 3 {
		f, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return math3d.Vec3{}, fmt.Errorf("bad float %q", fields[i])
		}
		v[i] = f
	}
	return math3d.V3(v[0], v[1], v[2]), nil
}

// Map suffixes and extensions tried by DiscoverMaps, in order.
var (
	mapSuffixes   = [3]string{"_diffuse", "_nm_tangent", "_spec"}
	mapExtensions = []string{".png", ".jpg", ".jpeg", ".bmp", ".tif", ".tiff"}
)

// DiscoverMaps looks next to an OBJ file for its texture maps using the
// basename convention model_diffuse.*, model_nm_tangent.* and
// model_spec.*. Missing maps return nil images rather than an error.
func DiscoverMaps(objPath string) (diffuse, normal, specular image.Image) {
	base := strings.TrimSuffix(objPath, filepath.Ext(objPath))

	load := func(suffix string) image.Image {
		for _, ext := range mapExtensions {
			f, err := os.Open(base + suffix + ext)
			if err != nil {
				continue
			}
			img, _, err := image.Decode(f)
			f.Close()
			if err == nil {
				return img
			}
		}
		return nil
	}

	return load(mapSuffixes[0]), load(mapSuffixes[1]), load(mapSuffixes[2])
}
