package bindgen

import (
	"context"
	"fmt"
	"strings"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
)

// goScalar maps C scalar types onto Go types and the C conversion used in
// the generated call. Pointer parameters are handled separately: they cross
// the boundary as unsafe.Pointer.
var goScalar = map[string][2]string{
	"void":     {"", ""},
	"bool":     {"bool", "C.bool"},
	"float":    {"float32", "C.float"},
	"double":   {"float64", "C.double"},
	"int8_t":   {"int8", "C.int8_t"},
	"uint8_t":  {"uint8", "C.uint8_t"},
	"int16_t":  {"int16", "C.int16_t"},
	"uint16_t": {"uint16", "C.uint16_t"},
	"int32_t":  {"int32", "C.int32_t"},
	"uint32_t": {"uint32", "C.uint32_t"},
	"int64_t":  {"int64", "C.int64_t"},
	"uint64_t": {"uint64", "C.uint64_t"},
	"int":      {"int32", "C.int"},
	"unsigned": {"uint32", "C.uint"},
}

// Generate writes a Go source file wrapping each declaration in a callable
// function backed by the combined header. The file belongs to package pkg
// and includes header via cgo.
func Generate(ctx context.Context, fs afs.Service, URL, pkg, header string, declarations []*Declaration) error {
	source, err := Render(pkg, header, declarations)
	if err != nil {
		return err
	}
	return fs.Upload(ctx, URL, file.DefaultFileOsMode, strings.NewReader(source))
}

// Render produces the generated source without writing it.
func Render(pkg, header string, declarations []*Declaration) (string, error) {
	var b strings.Builder
	b.WriteString("// Code generated by taskhost bindgen. DO NOT EDIT.\n\n")
	b.WriteString("package " + pkg + "\n\n")
	b.WriteString("/*\n#include " + fmt.Sprintf("%q", header) + "\n*/\nimport \"C\"\n")

	var body strings.Builder
	usesUnsafe := false
	for _, declaration := range declarations {
		wrapper, err := renderFunc(declaration)
		if err != nil {
			return "", err
		}
		if strings.Contains(wrapper, "unsafe.Pointer") {
			usesUnsafe = true
		}
		body.WriteString("\n" + wrapper)
	}
	if usesUnsafe {
		b.WriteString("\nimport \"unsafe\"\n")
	}
	b.WriteString(body.String())
	return b.String(), nil
}

func renderFunc(d *Declaration) (string, error) {
	params := make([]string, 0, len(d.Params))
	args := make([]string, 0, len(d.Params))
	for i, param := range d.Params {
		if param.Type == "void" {
			continue
		}
		name := param.Name
		if name == "" {
			name = fmt.Sprintf("arg%d", i)
		}
		goType, cast, err := mapType(param.Type)
		if err != nil {
			return "", fmt.Errorf("%s: %w", d.Name, err)
		}
		params = append(params, name+" "+goType)
		args = append(args, cast+"("+name+")")
	}

	signature := fmt.Sprintf("func %s(%s)", exported(d.Name), strings.Join(params, ", "))
	call := fmt.Sprintf("C.%s(%s)", d.Name, strings.Join(args, ", "))

	if d.Result == "void" {
		return fmt.Sprintf("%s {\n\t%s\n}\n", signature, call), nil
	}
	goType, _, err := mapType(d.Result)
	if err != nil {
		return "", fmt.Errorf("%s: %w", d.Name, err)
	}
	return fmt.Sprintf("%s %s {\n\treturn %s(%s)\n}\n", signature, goType, goType, call), nil
}

// mapType resolves a parsed C type to its Go counterpart and the conversion
// applied at the call site.
func mapType(cType string) (goType, cast string, err error) {
	if strings.HasSuffix(cType, "*") {
		cast, err := pointerCast(cType)
		return "unsafe.Pointer", cast, err
	}
	base := strings.TrimPrefix(cType, "const ")
	mapped, ok := goScalar[base]
	if !ok {
		return "", "", fmt.Errorf("unsupported C type %q", cType)
	}
	return mapped[0], mapped[1], nil
}

func pointerCast(cType string) (string, error) {
	base := strings.TrimSuffix(cType, "*")
	base = strings.TrimSpace(strings.TrimPrefix(base, "const "))
	if base == "void" {
		return "(unsafe.Pointer)", nil
	}
	if mapped, ok := goScalar[base]; ok && mapped[1] != "" {
		return "(*" + mapped[1] + ")", nil
	}
	return "", fmt.Errorf("unsupported C pointer type %q", cType)
}

func exported(name string) string {
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}
