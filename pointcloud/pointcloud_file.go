package pointcloud

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"
)

// PCDType is the format of a pcd file.
type PCDType int

const (
	// PCDAscii ascii format for pcd.
	PCDAscii PCDType = 0
	// PCDBinary binary format for pcd.
	PCDBinary PCDType = 1
	// PCDCompressed binary format for pcd.
	PCDCompressed PCDType = 2
)

// NewFromFile returns the points read in from the given file. Only .pcd files are supported.
func NewFromFile(fn string) (Vectors, error) {
	switch filepath.Ext(fn) {
	case ".pcd":
		//nolint:gosec
		f, err := os.Open(fn)
		if err != nil {
			return nil, err
		}
		defer utils.UncheckedErrorFunc(f.Close)
		points, err := ReadPCD(f)
		if err != nil {
			return nil, errors.Wrapf(err, "reading %q", fn)
		}
		return points, nil
	default:
		return nil, errors.Errorf("do not know how to read file %q", fn)
	}
}

// WriteToPCDFile writes the points to fn in the given PCD format.
func WriteToPCDFile(points Vectors, fn string, outputType PCDType) (err error) {
	//nolint:gosec
	f, err := os.Create(fn)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()
	w := bufio.NewWriter(f)
	if err := ToPCD(points, w, outputType); err != nil {
		return err
	}
	return w.Flush()
}

// ToPCD writes the points as a version .7 PCD with x y z float fields.
func ToPCD(points Vectors, out io.Writer, outputType PCDType) error {
	var dataLine string
	switch outputType {
	case PCDAscii:
		dataLine = "ascii"
	case PCDBinary:
		dataLine = "binary"
	case PCDCompressed:
		return errors.New("compressed PCD not yet implemented")
	default:
		return errors.Errorf("unknown pcd type %d", outputType)
	}

	_, err := fmt.Fprintf(out, "VERSION .7\n"+
		"FIELDS x y z\n"+
		"SIZE 4 4 4\n"+
		"TYPE F F F\n"+
		"COUNT 1 1 1\n"+
		"WIDTH %d\n"+
		"HEIGHT 1\n"+
		"VIEWPOINT 0 0 0 1 0 0 0\n"+
		"POINTS %d\n"+
		"DATA %s\n",
		len(points), len(points), dataLine)
	if err != nil {
		return err
	}

	buf := make([]byte, 12)
	for _, p := range points {
		switch outputType {
		case PCDBinary:
			binary.LittleEndian.PutUint32(buf, math.Float32bits(float32(p.X)))
			binary.LittleEndian.PutUint32(buf[4:], math.Float32bits(float32(p.Y)))
			binary.LittleEndian.PutUint32(buf[8:], math.Float32bits(float32(p.Z)))
			_, err = out.Write(buf)
		default:
			_, err = fmt.Fprintf(out, "%s %s %s\n", formatFloat(p.X), formatFloat(p.Y), formatFloat(p.Z))
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(float64(float32(f)), 'g', -1, 32)
}

type pcdHeader struct {
	fields []string
	size   []int
	type_  []string
	count  []int
	width  int
	height int
	points int
	data   PCDType
}

// tokens is the number of values per point in an ascii file.
func (h *pcdHeader) tokens() int {
	n := 0
	for _, c := range h.count {
		n += c
	}
	return n
}

// stride is the number of bytes per point in a binary file.
func (h *pcdHeader) stride() int {
	n := 0
	for i, c := range h.count {
		n += c * h.size[i]
	}
	return n
}

const pcdCommentChar = "#"

// maxPreallocPoints bounds the capacity reserved from an untrusted POINTS field.
const maxPreallocPoints = 1 << 16

var pcdHeaderFields = []string{"VERSION", "FIELDS", "SIZE", "TYPE", "COUNT", "WIDTH", "HEIGHT", "VIEWPOINT", "POINTS", "DATA"}

func parseInts(name string, tokens []string, want int) ([]int, error) {
	if len(tokens) != want {
		return nil, errors.Errorf("unexpected number of fields in %s line", name)
	}
	out := make([]int, len(tokens))
	for i, token := range tokens {
		v, err := strconv.ParseUint(token, 10, 32)
		if err != nil {
			return nil, errors.Errorf("invalid %s field %s", name, token)
		}
		out[i] = int(v)
	}
	return out, nil
}

// parseCount parses a non-negative point count.
func parseCount(name, value string) (int, error) {
	v, err := strconv.ParseUint(value, 10, 32)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid %s field %s", name, value)
	}
	return int(v), nil
}

func parsePCDHeaderLine(line string, index int, header *pcdHeader) error {
	var err error
	name := pcdHeaderFields[index]
	field, value, _ := strings.Cut(line, " ")
	value = strings.TrimSpace(value)
	tokens := strings.Fields(value)
	if field != name {
		return errors.Errorf("line is supposed to start with %s but is %s", name, line)
	}

	switch name {
	case "VERSION":
		if value != ".7" && value != "0.7" {
			return errors.Errorf("unsupported pcd version %s", value)
		}
	case "FIELDS":
		if len(tokens) < 3 || tokens[0] != "x" || tokens[1] != "y" || tokens[2] != "z" {
			return errors.Errorf("unsupported pcd fields %s, expected x y z first", value)
		}
		header.fields = tokens
	case "SIZE":
		header.size, err = parseInts(name, tokens, len(header.fields))
		if err != nil {
			return err
		}
		for i := 0; i < 3; i++ {
			if header.size[i] != 4 && header.size[i] != 8 {
				return errors.Errorf("unsupported size %d for field %s", header.size[i], header.fields[i])
			}
		}
	case "TYPE":
		if len(tokens) != len(header.fields) {
			return errors.New("unexpected number of fields in TYPE line")
		}
		for i := 0; i < 3; i++ {
			if tokens[i] != "F" {
				return errors.Errorf("field %s must be a float, got type %s", header.fields[i], tokens[i])
			}
		}
		header.type_ = tokens
	case "COUNT":
		header.count, err = parseInts(name, tokens, len(header.fields))
		if err != nil {
			return err
		}
		for i := 0; i < 3; i++ {
			if header.count[i] != 1 {
				return errors.Errorf("field %s must have a count of 1", header.fields[i])
			}
		}
	case "WIDTH":
		header.width, err = parseCount(name, value)
		if err != nil {
			return err
		}
	case "HEIGHT":
		header.height, err = parseCount(name, value)
		if err != nil {
			return err
		}
	case "VIEWPOINT":
		// the viewpoint is ignored; points are always read in the sensor's own frame
		if len(tokens) != 7 {
			return errors.Errorf("unexpected number of fields in VIEWPOINT line. Expected 7, got %d", len(tokens))
		}
	case "POINTS":
		header.points, err = parseCount(name, value)
		if err != nil {
			return err
		}
		if header.points != header.width*header.height {
			return errors.Errorf("POINTS field %d does not match WIDTH*HEIGHT %d", header.points, header.width*header.height)
		}
	case "DATA":
		switch value {
		case "ascii":
			header.data = PCDAscii
		case "binary":
			header.data = PCDBinary
		case "binary_compressed":
			header.data = PCDCompressed
		default:
			return errors.Errorf("unknown pcd data type %s", value)
		}
	}
	return nil
}

// ReadPCD reads a version .7 PCD with x, y and z as its first three float fields. Any further
// fields are skipped.
func ReadPCD(inRaw io.Reader) (Vectors, error) {
	header := pcdHeader{}
	in := bufio.NewReader(inRaw)
	headerLineCount := 0
	for headerLineCount < len(pcdHeaderFields) {
		line, err := in.ReadString('\n')
		if err != nil {
			return nil, errors.Wrapf(err, "error reading header line %d", headerLineCount)
		}
		line, _, _ = strings.Cut(line, pcdCommentChar)
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if err := parsePCDHeaderLine(line, headerLineCount, &header); err != nil {
			return nil, err
		}
		headerLineCount++
	}
	switch header.data {
	case PCDAscii:
		return readPCDAscii(in, &header)
	case PCDBinary:
		return readPCDBinary(in, &header)
	default:
		return nil, errors.New("compressed pcd not yet supported")
	}
}

func readPCDAscii(in *bufio.Reader, header *pcdHeader) (Vectors, error) {
	points := make(Vectors, 0, min(header.points, maxPreallocPoints))
	for i := 0; i < header.points; i++ {
		line, err := in.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			return nil, errors.Wrapf(err, "reading point %d", i)
		}
		tokens := strings.Fields(line)
		if len(tokens) != header.tokens() {
			return nil, errors.Errorf("unexpected number of fields in point %d", i)
		}
		var xyz [3]float64
		for j := range xyz {
			xyz[j], err = strconv.ParseFloat(tokens[j], 64)
			if err != nil {
				return nil, errors.Errorf("invalid point %d field %s", i, tokens[j])
			}
		}
		points = append(points, NewVector(xyz[0], xyz[1], xyz[2]))
	}
	return points, nil
}

func readPCDBinary(in *bufio.Reader, header *pcdHeader) (Vectors, error) {
	points := make(Vectors, 0, min(header.points, maxPreallocPoints))
	buf := make([]byte, header.stride())
	for i := 0; i < header.points; i++ {
		if _, err := io.ReadFull(in, buf); err != nil {
			return nil, errors.Wrapf(err, "reading point %d", i)
		}
		var xyz [3]float64
		offset := 0
		for j := range xyz {
			switch header.size[j] {
			case 8:
				xyz[j] = math.Float64frombits(binary.LittleEndian.Uint64(buf[offset:]))
			default:
				xyz[j] = float64(math.Float32frombits(binary.LittleEndian.Uint32(buf[offset:])))
			}
			offset += header.size[j]
		}
		points = append(points, NewVector(xyz[0], xyz[1], xyz[2]))
	}
	return points, nil
}
