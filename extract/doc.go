// Package extract turns uploaded PDF bytes into plain text.
//
// Extraction runs an ordered list of strategies. The native strategy reads
// the text layer embedded in the PDF; the OCR strategy rasterizes each page
// and hands the image to an OCR engine. The extractor accepts the first
// result that passes the sufficiency heuristics and otherwise keeps the best
// candidate seen so far, so a scanned document with a stub text layer still
// falls through to OCR.
//
// Strategies and the OCR engine are interfaces, which keeps the sufficiency
// and fallback logic testable without real PDF fixtures or a tesseract
// installation.
package extract
