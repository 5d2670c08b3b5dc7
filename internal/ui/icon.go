package ui

// iconBytes is a 16x16 PNG used as the tray icon.
var iconBytes = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x10, 0x00, 0x00, 0x00, 0x10,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0xf3, 0xff, 0x61, 0x00, 0x00, 0x00,
	0x27, 0x49, 0x44, 0x41, 0x54, 0x78, 0xda, 0x63, 0x60, 0xa0, 0x06, 0xf8,
	0x0f, 0x05, 0x56, 0x15, 0xc4, 0x61, 0x18, 0xa0, 0x9e, 0x01, 0xc4, 0x6a,
	0x44, 0xc7, 0xd4, 0x33, 0x60, 0x34, 0x0c, 0x46, 0xc3, 0x60, 0x70, 0x84,
	0x01, 0x25, 0x00, 0x00, 0xa1, 0x13, 0x38, 0x5f, 0xb6, 0x71, 0x8e, 0xb7,
	0x00, 0x00, 0x00, 0x00, 0x49, 0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}
