package scanning

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func testImage(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func encodeTestPNG(img image.Image) []byte {
	var buf bytes.Buffer
	Expect(png.Encode(&buf, img)).To(Succeed())
	return buf.Bytes()
}

func decodeTestPNG(data []byte) image.Image {
	img, err := png.Decode(bytes.NewReader(data))
	Expect(err).NotTo(HaveOccurred())
	return img
}

var _ = Describe("PrepareForAnalysis", func() {
	var (
		data        []byte
		contentType string
		maxSize     int
		result      []byte
		err         error
	)

	BeforeEach(func() {
		contentType = "image/png"
		maxSize = 0
	})

	JustBeforeEach(func() {
		result, err = PrepareForAnalysis(data, contentType, maxSize)
	})

	When("the image is larger than the default limit", func() {
		BeforeEach(func() {
			data = encodeTestPNG(testImage(3200, 100, color.NRGBA{R: 10, G: 20, B: 30, A: 255}))
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("should scale the longest side down to 1600 pixels keeping the aspect ratio", func() {
			b := decodeTestPNG(result).Bounds()
			Expect(b.Dx()).To(Equal(1600))
			Expect(b.Dy()).To(Equal(50))
		})
	})

	When("a custom limit is given", func() {
		BeforeEach(func() {
			data = encodeTestPNG(testImage(100, 400, color.NRGBA{A: 255}))
			maxSize = 200
		})

		It("should scale to that limit", func() {
			Expect(err).NotTo(HaveOccurred())
			b := decodeTestPNG(result).Bounds()
			Expect(b.Dx()).To(Equal(50))
			Expect(b.Dy()).To(Equal(200))
		})
	})

	When("the image is small", func() {
		BeforeEach(func() {
			data = encodeTestPNG(testImage(40, 30, color.NRGBA{A: 255}))
		})

		It("should keep its size", func() {
			Expect(err).NotTo(HaveOccurred())
			b := decodeTestPNG(result).Bounds()
			Expect(b.Dx()).To(Equal(40))
			Expect(b.Dy()).To(Equal(30))
		})
	})

	When("the image has transparency", func() {
		BeforeEach(func() {
			data = encodeTestPNG(testImage(4, 4, color.NRGBA{R: 200, G: 100, B: 50, A: 0}))
		})

		It("should produce an opaque image", func() {
			Expect(err).NotTo(HaveOccurred())
			_, _, _, a := decodeTestPNG(result).At(1, 1).RGBA()
			Expect(a).To(Equal(uint32(0xffff)))
		})
	})

	When("the image is a JPEG", func() {
		BeforeEach(func() {
			var buf bytes.Buffer
			Expect(jpeg.Encode(&buf, testImage(8, 8, color.NRGBA{R: 255, A: 255}), nil)).To(Succeed())
			data = buf.Bytes()
			contentType = "IMAGE/JPEG "
		})

		It("should return a PNG", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(decodeTestPNG(result).Bounds().Dx()).To(Equal(8))
		})
	})

	When("the data is not an image", func() {
		BeforeEach(func() {
			data = []byte("definitely not an image")
		})

		It("should return a descriptive error", func() {
			Expect(err).To(MatchError(ContainSubstring("unsupported image format")))
		})
	})
})

var _ = Describe("ConvertToPNG", func() {
	It("should return PNG data unchanged", func() {
		data := encodeTestPNG(testImage(2, 2, color.NRGBA{A: 255}))
		result, err := ConvertToPNG(data, "image/png")
		Expect(err).NotTo(HaveOccurred())
		Expect(result).To(Equal(data))
	})

	It("should convert a JPEG without resizing", func() {
		var buf bytes.Buffer
		Expect(jpeg.Encode(&buf, testImage(2000, 10, color.NRGBA{A: 255}), nil)).To(Succeed())
		result, err := ConvertToPNG(buf.Bytes(), "image/jpeg")
		Expect(err).NotTo(HaveOccurred())
		Expect(decodeTestPNG(result).Bounds().Dx()).To(Equal(2000))
	})

	It("should default an empty content type to JPEG decoding", func() {
		_, err := ConvertToPNG([]byte("garbage"), "")
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("isHEICFormat", func() {
	It("should detect a heic brand", func() {
		Expect(isHEICFormat([]byte("\x00\x00\x00\x18ftypheic\x00\x00"))).To(BeTrue())
	})

	It("should reject short data", func() {
		Expect(isHEICFormat([]byte("ftyp"))).To(BeFalse())
	})

	It("should reject other brands", func() {
		Expect(isHEICFormat([]byte("\x00\x00\x00\x18ftypisom\x00\x00"))).To(BeFalse())
	})
})
