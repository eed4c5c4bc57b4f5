package updater

import (
	"github.com/libsync/libsync/pkg/models"
)

// Import job ids, one per staged remote table. The names mirror the
// remote dump files so a job id in the queue reads back to its table.
const (
	JobIDImportBooks                = "import_libbook"
	JobIDImportAuthorLinks          = "import_libavtor"
	JobIDImportAuthorNames          = "import_libavtorname"
	JobIDImportTranslatorLinks      = "import_libtranslator"
	JobIDImportSequenceNames        = "import_libseqname"
	JobIDImportSequenceLinks        = "import_libseq"
	JobIDImportGenreLinks           = "import_libgenre"
	JobIDImportGenreList            = "import_libgenrelist"
	JobIDImportBookAnnotations      = "import_lib_b_annotations"
	JobIDImportBookAnnotationPics   = "import_lib_b_annotations_pics"
	JobIDImportAuthorAnnotations    = "import_lib_a_annotations"
	JobIDImportAuthorAnnotationPics = "import_lib_a_annotations_pics"
)

// ImportFiles maps each import job to the dump file it loads.
var ImportFiles = map[string]string{
	JobIDImportBooks:                "lib.libbook.sql",
	JobIDImportAuthorLinks:          "lib.libavtor.sql",
	JobIDImportAuthorNames:          "lib.libavtorname.sql",
	JobIDImportTranslatorLinks:      "lib.libtranslator.sql",
	JobIDImportSequenceNames:        "lib.libseqname.sql",
	JobIDImportSequenceLinks:        "lib.libseq.sql",
	JobIDImportGenreLinks:           "lib.libgenre.sql",
	JobIDImportGenreList:            "lib.libgenrelist.sql",
	JobIDImportBookAnnotations:      "lib.b.annotations.sql",
	JobIDImportBookAnnotationPics:   "lib.b.annotations_pics.sql",
	JobIDImportAuthorAnnotations:    "lib.a.annotations.sql",
	JobIDImportAuthorAnnotationPics: "lib.a.annotations_pics.sql",
}

// UpdateUnits lists every upsert unit plus the webhook job, in the
// order the orchestrator enqueues them. Enqueue order carries no
// execution-order meaning; Dependencies does.
var UpdateUnits = []string{
	models.JobTypeUpdateBooks,
	models.JobTypeUpdateBookAnnotations,
	models.JobTypeUpdateBookAnnotationPics,
	models.JobTypeUpdateBookGenres,
	models.JobTypeUpdateAuthors,
	models.JobTypeUpdateAuthorAnnotations,
	models.JobTypeUpdateAuthorAnnotationPics,
	models.JobTypeUpdateBookAuthors,
	models.JobTypeUpdateTranslations,
	models.JobTypeUpdateSequences,
	models.JobTypeUpdateBookSequences,
	models.JobTypeUpdateGenres,
	models.JobTypeWebhookNotify,
}

// Dependencies is the DAG: the predecessor job ids each unit polls
// before running. The webhook unit's predecessors are computed in
// WebhookDependencies since it waits on everything else.
var Dependencies = map[string][]string{
	models.JobTypeUpdateAuthors: {JobIDImportAuthorNames},
	models.JobTypeUpdateBooks:   {JobIDImportBooks},
	models.JobTypeUpdateBookAuthors: {
		JobIDImportAuthorLinks,
		models.JobTypeUpdateAuthors,
		models.JobTypeUpdateBooks,
	},
	models.JobTypeUpdateTranslations: {
		JobIDImportTranslatorLinks,
		models.JobTypeUpdateAuthors,
		models.JobTypeUpdateBooks,
	},
	models.JobTypeUpdateSequences: {JobIDImportSequenceNames},
	models.JobTypeUpdateBookSequences: {
		JobIDImportSequenceLinks,
		models.JobTypeUpdateSequences,
		models.JobTypeUpdateBooks,
	},
	models.JobTypeUpdateBookAnnotations: {
		JobIDImportBookAnnotations,
		models.JobTypeUpdateBooks,
	},
	models.JobTypeUpdateBookAnnotationPics: {
		JobIDImportBookAnnotationPics,
		models.JobTypeUpdateBookAnnotations,
	},
	models.JobTypeUpdateAuthorAnnotations: {
		JobIDImportAuthorAnnotations,
		models.JobTypeUpdateAuthors,
	},
	models.JobTypeUpdateAuthorAnnotationPics: {
		JobIDImportAuthorAnnotationPics,
		models.JobTypeUpdateAuthorAnnotations,
	},
	models.JobTypeUpdateGenres: {JobIDImportGenreList},
	models.JobTypeUpdateBookGenres: {
		JobIDImportGenreLinks,
		models.JobTypeUpdateBooks,
		models.JobTypeUpdateGenres,
	},
}

// WebhookDependencies returns every import job and every upsert unit:
// the webhook fires only once the whole graph is done.
func WebhookDependencies() []string {
	deps := make([]string, 0, len(ImportFiles)+len(UpdateUnits)-1)
	for jobID := range ImportFiles {
		deps = append(deps, jobID)
	}
	for _, unit := range UpdateUnits {
		if unit == models.JobTypeWebhookNotify {
			continue
		}
		deps = append(deps, unit)
	}
	return deps
}
