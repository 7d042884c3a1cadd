// Package upload is the framework-independent core of the upload form.
//
// A web adapter turns its request into a Submission and calls
// Processor.Process. The processor validates the submission, stores the
// image under a generated name in the upload directory, measures it, removes
// the file again and returns either an Outcome or an *Error carrying the
// message to show the user.
//
// Both the image and the density are required. The image name must end in
// .png, .jpg or .jpeg (any case); only the final extension is checked.
package upload
