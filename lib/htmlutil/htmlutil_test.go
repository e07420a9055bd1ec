package htmlutil

import (
	"context"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

const page = `<html><body>
<table>
	<tr><td> CS1010 </td><td>Programming&nbsp;&nbsp;Methodology</td></tr>
</table>
<a href="ModuleDetailedInfo.jsp?acad_y=2016/2017&amp;mod_c=CS1010"> CS1010 </a>
<a href="../Archive/201617_Sem1/successbid_1A_20162017s1.html">Round 1A</a>
</body></html>`

func TestCellTexts(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	require.NoError(t, err)

	cells := CellTexts(doc.Find("tr").First(), "td")
	require.Equal(t, []string{"CS1010", "Programming Methodology"}, cells)
}

func TestGetAnchors(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	require.NoError(t, err)

	anchors := GetAnchors(context.Background(), doc.Find("a"))
	require.Len(t, anchors, 2)
	require.Equal(t, "CS1010", anchors[0].Name)
	require.Equal(t, "ModuleDetailedInfo.jsp?acad_y=2016/2017&mod_c=CS1010", anchors[0].Href)
}

func TestResolve(t *testing.T) {
	resolved, err := Resolve(
		"https://myaces.nus.edu.sg/cors/jsp/report/ModuleInfoListing.jsp",
		"ModuleDetailedInfo.jsp?mod_c=CS1010",
	)
	require.NoError(t, err)
	require.Equal(t, "https://myaces.nus.edu.sg/cors/jsp/report/ModuleDetailedInfo.jsp?mod_c=CS1010", resolved)
}
