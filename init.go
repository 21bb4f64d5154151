package tiff

import "image"

func init() {
	image.RegisterFormat("tiff", leHeader, DecodeImage, DecodeImageConfig)
	image.RegisterFormat("tiff", beHeader, DecodeImage, DecodeImageConfig)
}
