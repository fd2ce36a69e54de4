// Package services holds the error taxonomy shared by the pipeline and the
// external tool clients that live in its subpackages.
package services
