// Package upload pushes selected local files to a bucket, one PutObject
// request per file.
//
// Request fields are built from the file (key, body, inferred content type)
// and then overlaid with the file's descriptor overrides. A credential
// failure stops all further uploads for the rest of the run.
package upload
