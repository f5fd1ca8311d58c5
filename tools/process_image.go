package tools

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"os"

	xdraw "golang.org/x/image/draw"

	"ayyy/internal/fsops"
)

type ProcessImageInput struct {
	ImagePath string `json:"image_path" jsonschema_description:"Relative path to the image file within the workspace."`
	Operation string `json:"operation" jsonschema:"enum=resize,enum=grayscale" jsonschema_description:"Operation to perform on the image."`
}

var ProcessImageInputSchema = GenerateSchema[ProcessImageInput]()

var ProcessImageDefinition = ToolDefinition{
	Name:        "process_image",
	Description: "Process an image by resizing or converting to grayscale; returns the result as base64-encoded PNG.",
	InputSchema: ProcessImageInputSchema,
	Function:    ProcessImage,
}

// resizeWidth/Height are the fixed output dimensions for the resize operation.
const (
	resizeWidth  = 800
	resizeHeight = 600
)

func ProcessImage(_ context.Context, input json.RawMessage) (string, error) {
	var in ProcessImageInput
	if err := json.Unmarshal(input, &in); err != nil {
		return "", err
	}

	absPath, err := fsops.ResolveReadPath(in.ImagePath)
	if err != nil {
		return "", err
	}
	f, err := os.Open(absPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", in.ImagePath, err)
	}

	var out image.Image
	switch in.Operation {
	case "resize":
		dst := image.NewRGBA(image.Rect(0, 0, resizeWidth, resizeHeight))
		xdraw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Over, nil)
		out = dst
	case "grayscale":
		dst := image.NewGray(src.Bounds())
		xdraw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, xdraw.Src)
		out = dst
	default:
		return "", fmt.Errorf("unsupported operation %q: resize and grayscale are allowed", in.Operation)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return "", fmt.Errorf("encode png: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
