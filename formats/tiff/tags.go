package tiff

// Baseline and extension tags read by this package.
const (
	TagNewSubfileType      = 254
	TagImageWidth          = 256
	TagImageLength         = 257
	TagBitsPerSample       = 258
	TagCompression         = 259
	TagPhotometric         = 262
	TagImageDescription    = 270
	TagMake                = 271
	TagModel               = 272
	TagStripOffsets        = 273
	TagSamplesPerPixel     = 277
	TagRowsPerStrip        = 278
	TagStripByteCounts     = 279
	TagXResolution         = 282
	TagYResolution         = 283
	TagPlanarConfiguration = 284
	TagResolutionUnit      = 296
	TagSoftware            = 305
	TagDateTime            = 306
	TagArtist              = 315
	TagPredictor           = 317
	TagColorMap            = 320
	TagTileWidth           = 322
	TagTileLength          = 323
	TagTileOffsets         = 324
	TagTileByteCounts      = 325
	TagSampleFormat        = 339
)

var tagNames = map[uint16]string{
	TagNewSubfileType:      "NewSubfileType",
	TagImageWidth:          "ImageWidth",
	TagImageLength:         "ImageLength",
	TagBitsPerSample:       "BitsPerSample",
	TagCompression:         "Compression",
	TagPhotometric:         "PhotometricInterpretation",
	TagImageDescription:    "ImageDescription",
	TagMake:                "Make",
	TagModel:               "Model",
	TagSamplesPerPixel:     "SamplesPerPixel",
	TagRowsPerStrip:        "RowsPerStrip",
	TagXResolution:         "XResolution",
	TagYResolution:         "YResolution",
	TagPlanarConfiguration: "PlanarConfiguration",
	TagResolutionUnit:      "ResolutionUnit",
	TagSoftware:            "Software",
	TagDateTime:            "DateTime",
	TagArtist:              "Artist",
	TagPredictor:           "Predictor",
	TagTileWidth:           "TileWidth",
	TagTileLength:          "TileLength",
	TagSampleFormat:        "SampleFormat",
}

// Compression codes and the codec that handles each.
const (
	CompressionNone     = 1
	CompressionLZW      = 5
	CompressionDeflate  = 8
	CompressionPackBits = 32773
	CompressionOldZip   = 32946
	CompressionZstd     = 50000
)

var compressionCodecs = map[uint64]string{
	CompressionLZW:      "lzw",
	CompressionDeflate:  "deflate",
	CompressionPackBits: "packbits",
	CompressionOldZip:   "deflate",
	CompressionZstd:     "zstd",
}

var compressionNames = map[uint64]string{
	CompressionNone:     "Uncompressed",
	CompressionLZW:      "LZW",
	CompressionDeflate:  "Deflate",
	CompressionPackBits: "PackBits",
	CompressionOldZip:   "Deflate",
	CompressionZstd:     "Zstandard",
}

// Photometric interpretations.
const (
	PhotometricWhiteIsZero = 0
	PhotometricBlackIsZero = 1
	PhotometricRGB         = 2
	PhotometricPalette     = 3
)

var photometricNames = map[uint64]string{
	PhotometricWhiteIsZero: "WhiteIsZero",
	PhotometricBlackIsZero: "BlackIsZero",
	PhotometricRGB:         "RGB",
	PhotometricPalette:     "Palette",
}

// Sample formats.
const (
	SampleUint  = 1
	SampleInt   = 2
	SampleFloat = 3
)

// Resolution units.
const (
	UnitInch       = 2
	UnitCentimeter = 3
)
