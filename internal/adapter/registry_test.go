package adapter_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"docparse/internal/adapter"
	"docparse/internal/domain"
	"docparse/internal/port"
	"docparse/mocks"
)

func stubContent(tag string) *port.RawContent {
	return &port.RawContent{Text: tag, SourceType: domain.SourcePDFNative}
}

func TestRegistry_Dispatch(t *testing.T) {
	cases := []struct {
		name     string
		raw      []byte
		filename string
		want     string
	}{
		{"pdf_magic", []byte("%PDF-1.7 rest"), "doc.bin", "pdf"},
		{"png_magic", []byte("\x89PNG\r\n\x1a\nrest"), "scan", "image"},
		{"jpeg_magic", []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00}, "scan", "image"},
		{"tiff_le_magic", []byte("II*\x00rest"), "scan", "image"},
		{"tiff_be_magic", []byte("MM\x00*rest"), "scan", "image"},
		{"xlsx_magic", []byte("PK\x03\x04rest"), "book.xlsx", "spreadsheet"},
		{"csv_extension", []byte("a,b,c\n1,2,3\n"), "lines.csv", "spreadsheet"},
		{"tsv_extension", []byte("a\tb\n"), "lines.tsv", "spreadsheet"},
		{"xml_extension", []byte("<Invoice/>"), "doc.xml", "xml"},
		{"xml_sniffed", []byte("<?xml version=\"1.0\"?><Invoice/>"), "doc.dat", "xml"},
		{"xml_sniffed_bom", []byte("\xef\xbb\xbf  <Invoice/>"), "doc.dat", "xml"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			adapters := map[string]*mocks.MockFormatAdapter{
				"pdf": new(mocks.MockFormatAdapter), "image": new(mocks.MockFormatAdapter),
				"spreadsheet": new(mocks.MockFormatAdapter), "xml": new(mocks.MockFormatAdapter),
			}
			adapters[tc.want].On("Adapt", mock.Anything, tc.raw, tc.filename).
				Return(stubContent(tc.want), nil).Once()

			reg := adapter.NewRegistry(adapters["pdf"], adapters["image"], adapters["spreadsheet"], adapters["xml"])
			content, err := reg.Adapt(context.Background(), tc.raw, tc.filename)

			require.NoError(t, err)
			assert.Equal(t, tc.want, content.Text)
			for name, m := range adapters {
				if name == tc.want {
					m.AssertExpectations(t)
				} else {
					m.AssertNotCalled(t, "Adapt", mock.Anything, mock.Anything, mock.Anything)
				}
			}
		})
	}
}

func TestRegistry_EmptyUpload(t *testing.T) {
	reg := adapter.NewRegistry(nil, nil, nil, nil)
	_, err := reg.Adapt(context.Background(), nil, "empty.pdf")
	assert.ErrorIs(t, err, domain.ErrEmptyDocument)
}

func TestRegistry_UnknownFormat(t *testing.T) {
	reg := adapter.NewRegistry(nil, nil, nil, nil)
	_, err := reg.Adapt(context.Background(), []byte{0x00, 0x01, 0x02}, "blob.bin")
	assert.ErrorIs(t, err, domain.ErrUnsupportedFileType)
	assert.Contains(t, err.Error(), ".bin")
}
