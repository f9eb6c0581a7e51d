package main

import (
	"github.com/mark3labs/mcp-go/mcp"
)

func sessionIDParam() mcp.ToolOption {
	return mcp.WithString("session_id",
		mcp.Required(),
		mcp.Description("Session id returned by open_pdf"),
	)
}

func pageParam() mcp.ToolOption {
	return mcp.WithNumber("page",
		mcp.Description("1-based page number in the current order (default: current page)"),
	)
}

// createOpenPDFTool returns the open_pdf tool definition
func createOpenPDFTool() mcp.Tool {
	return mcp.NewTool("open_pdf",
		mcp.WithDescription("Open a PDF file from disk and start an editing session"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path of the PDF to open"),
		),
	)
}

// createListSessionsTool returns the list_sessions tool definition
func createListSessionsTool() mcp.Tool {
	return mcp.NewTool("list_sessions",
		mcp.WithDescription("List open editing sessions"),
	)
}

// createGetSessionTool returns the get_session tool definition
func createGetSessionTool() mcp.Tool {
	return mcp.NewTool("get_session",
		mcp.WithDescription("Describe a session: pages, rotations, annotations, filter and undo depth"),
		sessionIDParam(),
	)
}

// createCloseSessionTool returns the close_session tool definition
func createCloseSessionTool() mcp.Tool {
	return mcp.NewTool("close_session",
		mcp.WithDescription("Close a session and drop its undo history"),
		sessionIDParam(),
	)
}

// createAddTextTool returns the add_text tool definition
func createAddTextTool() mcp.Tool {
	return mcp.NewTool("add_text",
		mcp.WithDescription("Place a line of text; x/y is its top-left corner in display pixels"),
		sessionIDParam(),
		pageParam(),
		mcp.WithNumber("x", mcp.Required(), mcp.Description("Left edge in display pixels")),
		mcp.WithNumber("y", mcp.Required(), mcp.Description("Top edge in display pixels")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Text to place")),
		mcp.WithString("color", mcp.Description("Hex color (default: #000000)")),
	)
}

// createAddHighlightTool returns the add_highlight tool definition
func createAddHighlightTool() mcp.Tool {
	return mcp.NewTool("add_highlight",
		mcp.WithDescription("Add a translucent highlight rectangle"),
		sessionIDParam(),
		pageParam(),
		mcp.WithNumber("x", mcp.Required(), mcp.Description("Left edge in display pixels")),
		mcp.WithNumber("y", mcp.Required(), mcp.Description("Top edge in display pixels")),
		mcp.WithNumber("width", mcp.Required(), mcp.Description("Width in display pixels")),
		mcp.WithNumber("height", mcp.Required(), mcp.Description("Height in display pixels")),
		mcp.WithString("color", mcp.Description("Hex color (default: #ffff00)")),
	)
}

// createRemoveAnnotationTool returns the remove_annotation tool definition
func createRemoveAnnotationTool() mcp.Tool {
	return mcp.NewTool("remove_annotation",
		mcp.WithDescription("Remove an annotation by kind and id"),
		sessionIDParam(),
		mcp.WithString("kind", mcp.Required(), mcp.Description("text, highlight, drawing or signature")),
		mcp.WithString("annotation_id", mcp.Required(), mcp.Description("Annotation id")),
	)
}

// createRotatePageTool returns the rotate_page tool definition
func createRotatePageTool() mcp.Tool {
	return mcp.NewTool("rotate_page",
		mcp.WithDescription("Rotate a page a quarter turn clockwise"),
		sessionIDParam(),
		pageParam(),
	)
}

// createDeletePageTool returns the delete_page tool definition
func createDeletePageTool() mcp.Tool {
	return mcp.NewTool("delete_page",
		mcp.WithDescription("Delete a page and its annotations. The last page cannot be deleted."),
		sessionIDParam(),
		pageParam(),
	)
}

// createReorderPagesTool returns the reorder_pages tool definition
func createReorderPagesTool() mcp.Tool {
	return mcp.NewTool("reorder_pages",
		mcp.WithDescription("Reorder pages. order lists current page numbers in their new sequence."),
		sessionIDParam(),
		mcp.WithArray("order",
			mcp.Required(),
			mcp.WithNumberItems(),
			mcp.Description("Permutation of 1..page_count, e.g. [3, 1, 2]"),
		),
	)
}

// createSetFilterTool returns the set_filter tool definition
func createSetFilterTool() mcp.Tool {
	return mcp.NewTool("set_filter",
		mcp.WithDescription("Select the visual filter applied to every page on export"),
		sessionIDParam(),
		mcp.WithString("filter",
			mcp.Required(),
			mcp.Description("none, grayscale, sepia, brighten or darken"),
		),
		mcp.WithBoolean("bake",
			mcp.Description("Apply the filter to the document now (undoable)"),
		),
	)
}

// createUndoTool returns the undo tool definition
func createUndoTool() mcp.Tool {
	return mcp.NewTool("undo",
		mcp.WithDescription("Revert the last page edit, signature placement or filter bake"),
		sessionIDParam(),
	)
}

// createExportPDFTool returns the export_pdf tool definition
func createExportPDFTool() mcp.Tool {
	return mcp.NewTool("export_pdf",
		mcp.WithDescription("Export the edited document as PDF, flattening annotations and filter"),
		sessionIDParam(),
		mcp.WithString("output_path", mcp.Required(), mcp.Description("Where to write the PDF")),
		mcp.WithBoolean("flatten", mcp.Description("Rasterize pages (default: only when needed)")),
	)
}

// createExportImagesTool returns the export_images tool definition
func createExportImagesTool() mcp.Tool {
	return mcp.NewTool("export_images",
		mcp.WithDescription("Export pages as PNG. One page writes a PNG, several write a ZIP."),
		sessionIDParam(),
		mcp.WithString("output_path", mcp.Required(), mcp.Description("Where to write the PNG or ZIP")),
		mcp.WithArray("pages",
			mcp.WithNumberItems(),
			mcp.Description("Page numbers to export (default: all)"),
		),
	)
}
