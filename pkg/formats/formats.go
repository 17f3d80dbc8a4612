// Package formats provides codecs for Wavefront OBJ, MTL and STL mesh files,
// and the conversion between OBJ's indexed meshes and STL's triangle soup.
package formats
