package registry

import (
	"net/http"
	"time"

	"github.com/mesh-intelligence/caseload/pkg/types"
)

// Standard entity type names of the shelter API.
const (
	Jenjang   = "jenjang"
	Kelas     = "kelas"
	Kurikulum = "kurikulum"
	Materi    = "materi"
	Semester  = "semester"
	Anak      = "anak"
	Keluarga  = "keluarga"
	Tutor     = "tutor"
	Aktivitas = "aktivitas"
	Absen     = "absen"
	Donatur   = "donatur"
	Raport    = "raport"
	Surat     = "surat"
)

// crud builds the standard endpoint set rooted at base.
func crud(base string) types.Endpoints {
	return types.Endpoints{
		List:   base,
		Detail: base + "/{id}",
		Create: base,
		Update: base + "/{id}",
		Delete: base + "/{id}",
	}
}

// withDropdown and withStatistics add the optional endpoints.
func withDropdown(ep types.Endpoints) types.Endpoints {
	ep.Dropdown = ep.List + "/dropdown"
	return ep
}

func withStatistics(ep types.Endpoints) types.Endpoints {
	ep.Statistics = ep.List + "/statistics"
	return ep
}

func required(msg string) types.ValidationRule {
	return types.ValidationRule{Rule: "required", Message: msg}
}

// DefaultDescriptors returns the shelter API descriptors.
func DefaultDescriptors() []types.Descriptor {
	return []types.Descriptor{
		{
			EntityType: Jenjang,
			Endpoints:  withStatistics(withDropdown(crud("/admin-pusat/jenjang"))),
			ValidationRules: map[string][]types.ValidationRule{
				"nama_jenjang": {
					required("Nama jenjang wajib diisi"),
					{Rule: "max_length", Value: 100, Message: "Nama jenjang maksimal 100 karakter"},
				},
				"kode_jenjang": {
					required("Kode jenjang wajib diisi"),
					{Rule: "max_length", Value: 10, Message: "Kode jenjang maksimal 10 karakter"},
				},
				"urutan": {
					required("Urutan wajib diisi"),
					{Rule: "integer", Message: "Urutan harus berupa angka"},
					{Rule: "min", Value: 1, Message: "Urutan minimal 1"},
				},
			},
		},
		{
			EntityType: Kelas,
			Endpoints:  withDropdown(crud("/admin-pusat/kelas")),
			ValidationRules: map[string][]types.ValidationRule{
				"nama_kelas": {required("Nama kelas wajib diisi")},
				"id_jenjang": {required("Jenjang wajib dipilih")},
				"tingkat": {
					{Rule: "min", Value: 1, Message: "Tingkat minimal 1"},
					{Rule: "max", Value: 12, Message: "Tingkat maksimal 12"},
				},
			},
			Extensions: map[string]types.ExtensionOp{
				"available_anak": {
					Method: http.MethodGet,
					Path:   "/admin-pusat/kelas/{id}/available-anak",
					Class:  types.ClassList,
					Merge:  types.MergeRule{Kind: types.MergeAvailable},
				},
			},
		},
		{
			EntityType: Kurikulum,
			Endpoints:  withStatistics(withDropdown(crud("/admin-cabang/kurikulum"))),
			ValidationRules: map[string][]types.ValidationRule{
				"nama_kurikulum": {required("Nama kurikulum wajib diisi")},
				"tahun_berlaku": {
					required("Tahun berlaku wajib diisi"),
					{Rule: "integer", Message: "Tahun harus berupa angka"},
					{Rule: "min", Value: 2000, Message: "Tahun minimal 2000"},
				},
				"id_jenjang": {required("Jenjang wajib dipilih")},
			},
			Extensions: map[string]types.ExtensionOp{
				"assign_materi": {
					Method: http.MethodPost,
					Path:   "/admin-cabang/kurikulum/{id}/assign-materi",
					Merge:  types.MergeRule{Kind: types.MergeCurrent},
				},
				"remove_materi": {
					Method: http.MethodDelete,
					Path:   "/admin-cabang/kurikulum/{id}/materi/{child_id}",
					Merge:  types.MergeRule{Kind: types.MergeRemoveNested, Field: "kurikulum_materi", ChildType: Materi},
				},
				"reorder_materi": {
					Method: http.MethodPost,
					Path:   "/admin-cabang/kurikulum/{id}/reorder-materi",
					Merge:  types.MergeRule{Kind: types.MergeReplaceNested, Field: "kurikulum_materi"},
				},
				"set_active": {
					Method: http.MethodPost,
					Path:   "/admin-cabang/kurikulum/{id}/set-active",
					Merge:  types.MergeRule{Kind: types.MergeItem},
				},
			},
		},
		{
			EntityType: Materi,
			Endpoints:  withDropdown(crud("/admin-cabang/materi")),
			ValidationRules: map[string][]types.ValidationRule{
				"nama_materi": {required("Nama materi wajib diisi")},
				"id_mata_pelajaran": {required("Mata pelajaran wajib dipilih")},
			},
		},
		{
			EntityType: Semester,
			Endpoints:  withStatistics(crud("/admin-shelter/semester")),
			ValidationRules: map[string][]types.ValidationRule{
				"nama_semester": {required("Nama semester wajib diisi")},
				"tanggal_mulai": {
					required("Tanggal mulai wajib diisi"),
					{Rule: "date", Message: "Format tanggal tidak valid"},
				},
				"tanggal_selesai": {
					required("Tanggal selesai wajib diisi"),
					{Rule: "date", Message: "Format tanggal tidak valid"},
				},
				"periode": {
					{Rule: "one_of", Value: []any{"ganjil", "genap"}, Message: "Periode harus ganjil atau genap"},
				},
			},
			Extensions: map[string]types.ExtensionOp{
				"set_active": {
					Method: http.MethodPost,
					Path:   "/admin-shelter/semester/{id}/set-active",
					Merge:  types.MergeRule{Kind: types.MergeItem},
				},
			},
		},
		{
			EntityType: Anak,
			Endpoints:  withStatistics(withDropdown(crud("/admin-shelter/anak"))),
			// Child statistics are expensive on the server and change slowly.
			StatsCacheWindow: 10 * time.Minute,
			ValidationRules: map[string][]types.ValidationRule{
				"full_name": {
					required("Nama lengkap wajib diisi"),
					{Rule: "min_length", Value: 3, Message: "Nama minimal 3 karakter"},
				},
				"jenis_kelamin": {
					required("Jenis kelamin wajib dipilih"),
					{Rule: "one_of", Value: []any{"Laki-laki", "Perempuan"}, Message: "Jenis kelamin tidak valid"},
				},
				"tanggal_lahir": {{Rule: "date", Message: "Format tanggal lahir tidak valid"}},
				"nik_anak": {
					{Rule: "pattern", Value: `^\d{16}$`, Message: "NIK harus 16 digit angka"},
				},
				"sekolah": {{
					Rule:    "required",
					Message: "Nama sekolah wajib diisi untuk anak yang bersekolah",
					Condition: func(r types.Record) bool {
						return r["status_pendidikan"] == "Sekolah"
					},
				}},
			},
			Extensions: map[string]types.ExtensionOp{
				"toggle_status": {
					Method: http.MethodPost,
					Path:   "/admin-shelter/anak/{id}/toggle-status",
					Merge:  types.MergeRule{Kind: types.MergeItem},
				},
			},
		},
		{
			EntityType: Keluarga,
			Endpoints:  withDropdown(crud("/admin-shelter/keluarga")),
			ValidationRules: map[string][]types.ValidationRule{
				"no_kk": {
					required("Nomor KK wajib diisi"),
					{Rule: "pattern", Value: `^\d{16}$`, Message: "Nomor KK harus 16 digit angka"},
				},
				"kepala_keluarga": {required("Nama kepala keluarga wajib diisi")},
			},
		},
		{
			EntityType: Tutor,
			Endpoints:  withDropdown(crud("/admin-shelter/tutor")),
			ValidationRules: map[string][]types.ValidationRule{
				"nama": {required("Nama tutor wajib diisi")},
				"email": {
					required("Email wajib diisi"),
					{Rule: "email", Message: "Format email tidak valid"},
				},
				"no_hp": {{Rule: "pattern", Value: `^(\+62|0)8\d{7,11}$`, Message: "Nomor HP tidak valid"}},
				"password": {{Rule: "min_length", Value: 8, Message: "Password minimal 8 karakter"}},
				"password_confirmation": {{Rule: "same_as", Value: "password", Message: "Konfirmasi password tidak cocok"}},
			},
		},
		{
			EntityType: Aktivitas,
			Endpoints:  withStatistics(crud("/admin-shelter/aktivitas")),
			ValidationRules: map[string][]types.ValidationRule{
				"jenis_kegiatan": {required("Jenis kegiatan wajib dipilih")},
				"tanggal": {
					required("Tanggal wajib diisi"),
					{Rule: "date", Message: "Format tanggal tidak valid"},
				},
				"materi": {{
					Rule:    "required",
					Message: "Materi wajib diisi untuk kegiatan bimbel",
					Condition: func(r types.Record) bool {
						return r["jenis_kegiatan"] == "Bimbel"
					},
				}},
			},
		},
		{
			EntityType: Absen,
			Endpoints:  withStatistics(crud("/admin-shelter/absen")),
			ValidationRules: map[string][]types.ValidationRule{
				"id_aktivitas": {required("Aktivitas wajib dipilih")},
				"absen": {
					required("Status kehadiran wajib dipilih"),
					{Rule: "one_of", Value: []any{"Ya", "Tidak", "Terlambat"}, Message: "Status kehadiran tidak valid"},
				},
			},
		},
		{
			EntityType: Donatur,
			Endpoints:  withDropdown(crud("/admin-cabang/donatur")),
			ValidationRules: map[string][]types.ValidationRule{
				"nama_lengkap": {required("Nama donatur wajib diisi")},
				"email": {{Rule: "email", Message: "Format email tidak valid"}},
				"no_hp": {
					required("Nomor HP wajib diisi"),
					{Rule: "numeric", Message: "Nomor HP hanya boleh angka"},
				},
			},
			Extensions: map[string]types.ExtensionOp{
				"assign_anak": {
					Method: http.MethodPost,
					Path:   "/admin-cabang/donatur/{id}/assign-anak",
					Merge:  types.MergeRule{Kind: types.MergeReplaceNested, Field: "anak"},
				},
				"remove_anak": {
					Method: http.MethodDelete,
					Path:   "/admin-cabang/donatur/{id}/anak/{child_id}",
					Merge:  types.MergeRule{Kind: types.MergeRemoveNested, Field: "anak", ChildType: Anak},
				},
			},
		},
		{
			EntityType: Raport,
			Endpoints:  crud("/admin-shelter/raport"),
			ValidationRules: map[string][]types.ValidationRule{
				"id_anak":     {required("Anak wajib dipilih")},
				"id_semester": {required("Semester wajib dipilih")},
				"nilai_rata_rata": {
					{Rule: "min", Value: 0, Message: "Nilai minimal 0"},
					{Rule: "max", Value: 100, Message: "Nilai maksimal 100"},
				},
			},
			Extensions: map[string]types.ExtensionOp{
				"publish": {
					Method: http.MethodPost,
					Path:   "/admin-shelter/raport/{id}/publish",
					Merge:  types.MergeRule{Kind: types.MergeItem},
				},
			},
		},
		{
			EntityType: Surat,
			Endpoints:  crud("/donatur/surat"),
			ValidationRules: map[string][]types.ValidationRule{
				"pesan": {
					required("Pesan wajib diisi"),
					{Rule: "max_length", Value: 1000, Message: "Pesan maksimal 1000 karakter"},
				},
			},
			Extensions: map[string]types.ExtensionOp{
				"mark_read": {
					Method: http.MethodPut,
					Path:   "/donatur/surat/{id}/read",
					Merge:  types.MergeRule{Kind: types.MergeItem},
				},
			},
		},
	}
}

// Default returns the registry of the shelter API.
func Default() *Registry {
	return MustNew(DefaultDescriptors()...)
}
