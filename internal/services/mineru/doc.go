// Package mineru talks to the MinerU document extraction API. A
// submitted document URL becomes an asynchronous extraction task; the
// finished task exposes a zip archive whose markdown payload is the
// extracted document body.
package mineru
