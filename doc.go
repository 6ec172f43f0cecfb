// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dbpf

/*
Package dbpf decodes DBPF (Database Packed File) archives: the indexed
container format used for SimCity 4 save games and plugin content. It
reads the envelope and index, resolves the optional directory record for
QFS-compressed entries, and decodes the resource formats stored inside
(Exemplar/Cohort property tables, LText localized strings, FSH texture
containers, S3D 3-D models, and RUL0 junction rule scripts).

# Reading

Open an archive and list or read entries:

	r, err := dbpf.Open("SimCity_1.sc4")
	if err != nil {
	    return err
	}
	defer r.Close()
	for _, e := range r.Entries() {
	    data, err := r.ReadEntry(e)
	    // use data
	}

Entries are addressed by their type/group/instance key. FindEntry looks
up a single key; FindEntries matches a wildcard Mask (nil fields match
anything); FindEntriesByLabel resolves a name from the resource-key
catalog (tgi.go) to its mask first:

	key := dbpf.Key{Type: 0x6534284A, Group: 0xA8FBD372, Instance: 0x10}
	entry, err := r.FindEntry(key)

	typ := uint32(0x6534284A)
	exemplars := r.FindEntries(dbpf.Mask{Type: &typ})

	lots, err := r.FindEntriesByLabel("Exemplar")

# Decoding resources

ReadEntry returns the normalized (chunk-header-stripped, QFS-decompressed
where applicable) payload. The Load* convenience methods read and parse
in one step:

	ex, err := r.LoadExemplar(entry)
	text, err := r.LoadLText(key)
	img, err := r.LoadFSH(mask)
	model, err := r.LoadS3D(entry)

RUL0 rule scripts need an injected INI tokenizer, since the on-disk
format is INI-flavored text rather than DBPF's usual binary chunks:

	rules, err := r.LoadRUL0(entry, dbpf.NewINIv1Source())

# Logging

ReaderOptions.Logger accepts an *slog.Logger; the zero value falls back
to a tint-backed stderr handler. FanoutLogger composes additional
handlers (e.g. a file sink) alongside it:

	r, err := dbpf.OpenWithOptions("addon.dat", dbpf.ReaderOptions{
	    Logger: dbpf.FanoutLogger(consoleHandler, fileHandler),
	})

# Errors

Parse failures are returned as one of BoundsError, FormatError,
DomainError, IoError, or NotFoundError, matched with errors.As; some of
them also match a sentinel via errors.Is (ErrEntryNotFound,
ErrLabelNotFound, ErrUnsupportedVersion, and so on) so callers can match
on failure class without string comparison.
*/
package dbpf
