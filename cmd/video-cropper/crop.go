package main

import (
	"fmt"

	"github.com/jeselxe/video-cropper/internal/export"
)

// cropValue is a pflag.Value parsing a crop rectangle written as WxH+X+Y,
// the geometry syntax X11 and ImageMagick use.
type cropValue struct {
	area *export.CropArea
}

func newCropValue(area *export.CropArea) *cropValue {
	return &cropValue{area: area}
}

func (v *cropValue) String() string {
	if v.area == nil {
		return ""
	}
	return formatCrop(*v.area)
}

func (v *cropValue) Set(s string) error {
	var a export.CropArea
	if _, err := fmt.Sscanf(s, "%dx%d+%d+%d", &a.Width, &a.Height, &a.X, &a.Y); err != nil || formatCrop(a) != s {
		return fmt.Errorf("crop %q: want WxH+X+Y, e.g. 640x360+0+0", s)
	}
	*v.area = a
	return nil
}

func (v *cropValue) Type() string {
	return "geometry"
}

func formatCrop(a export.CropArea) string {
	return fmt.Sprintf("%dx%d+%d+%d", a.Width, a.Height, a.X, a.Y)
}
